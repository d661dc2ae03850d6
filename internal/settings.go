package internal

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Theme choices
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Setting ranges
const (
	MinTypeSpeed     = 5
	MaxTypeSpeed     = 60
	MinBubbleWidth   = 40
	MaxBubbleWidth   = 100
	MinSidebarWidth  = 160
	MaxSidebarWidth  = 480
	DefaultTypeSpeed = 12
)

// Settings is the persisted user preference record
type Settings struct {
	Theme        string `json:"theme"`
	Typewriter   bool   `json:"typewriter"`
	TypeSpeed    int    `json:"typeSpeed"` // ms per revealed step
	BubbleWidth  int    `json:"bubbleWidth"`
	SidebarWidth int    `json:"sidebarWidth"`
	UserMarkdown bool   `json:"userMarkdown"`
}

// DefaultSettings returns the settings used when nothing is stored
func DefaultSettings() Settings {
	return Settings{
		Theme:        ThemeSystem,
		Typewriter:   true,
		TypeSpeed:    DefaultTypeSpeed,
		BubbleWidth:  100,
		SidebarWidth: 240,
		UserMarkdown: false,
	}
}

// Normalize clamps every field into its valid range
func (s Settings) Normalize() Settings {
	switch s.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		s.Theme = ThemeSystem
	}
	if s.TypeSpeed <= 0 {
		s.TypeSpeed = DefaultTypeSpeed
	}
	s.TypeSpeed = clamp(s.TypeSpeed, MinTypeSpeed, MaxTypeSpeed)
	s.BubbleWidth = clamp(s.BubbleWidth, MinBubbleWidth, MaxBubbleWidth)
	s.SidebarWidth = clamp(s.SidebarWidth, MinSidebarWidth, MaxSidebarWidth)
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DecodeSettings merges a stored record over the defaults field by field.
// Fields that are missing or of the wrong type keep their default.
func DecodeSettings(data []byte) Settings {
	s := DefaultSettings()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		LogWarn("Ignoring unreadable settings: %v", &ParseError{Source: "settings", Key: SettingsKey, Err: err})
		return s
	}

	decode := func(name string, dst interface{}) {
		raw, ok := fields[name]
		if !ok {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			LogDebug("Ignoring invalid setting %s: %v", name, err)
		}
	}
	decode("theme", &s.Theme)
	decode("typewriter", &s.Typewriter)
	decodeNumber(fields, "typeSpeed", &s.TypeSpeed)
	decodeNumber(fields, "bubbleWidth", &s.BubbleWidth)
	decodeNumber(fields, "sidebarWidth", &s.SidebarWidth)
	decode("userMarkdown", &s.UserMarkdown)
	return s.Normalize()
}

// decodeNumber accepts JSON numbers and numeric strings, rounding fractions
func decodeNumber(fields map[string]json.RawMessage, name string, dst *int) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			f = math.NaN()
		} else if f, err = strconv.ParseFloat(strings.TrimSpace(str), 64); err != nil {
			f = math.NaN()
		}
	}
	if math.IsNaN(f) {
		LogDebug("Ignoring invalid setting %s: %s", name, string(raw))
		return
	}
	*dst = int(math.Round(math.Max(-maxSettingNumber, math.Min(maxSettingNumber, f))))
}

// maxSettingNumber bounds decoded numbers before they are converted to int;
// every numeric setting range lies well inside it
const maxSettingNumber = 1 << 20

// Applied is the effect of a settings record on the running client
type Applied struct {
	Theme          string // resolved to light or dark
	Typewriter     bool
	RevealInterval time.Duration
	UserMarkdown   bool
	Vars           map[string]string // layout variables, e.g. --msg-max
}

// SettingsManager owns the current settings and applies them on change
type SettingsManager struct {
	mu       sync.Mutex
	persist  *Persistence
	settings Settings
	onApply  []func(Applied)

	// DarkBackground resolves the system theme
	DarkBackground func() bool
}

// NewSettingsManager loads settings from p and applies them
func NewSettingsManager(p *Persistence) *SettingsManager {
	m := &SettingsManager{
		persist:        p,
		settings:       p.LoadSettings(),
		DarkBackground: lipgloss.HasDarkBackground,
	}
	return m
}

// Current returns the current settings
func (m *SettingsManager) Current() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Applied returns the effect of the current settings
func (m *SettingsManager) Applied() Applied {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(m.settings)
}

// OnApply registers fn to run after every settings change
func (m *SettingsManager) OnApply(fn func(Applied)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onApply = append(m.onApply, fn)
}

// Update changes the settings, persists them, and re-applies them.
// A persistence failure is logged and the change still takes effect.
func (m *SettingsManager) Update(change func(*Settings)) Applied {
	m.mu.Lock()
	next := m.settings
	change(&next)
	m.settings = next.Normalize()
	if err := m.persist.SaveSettings(m.settings); err != nil {
		LogWarn("Failed to persist settings: %v", err)
	}
	applied := m.apply(m.settings)
	hooks := append([]func(Applied){}, m.onApply...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(applied)
	}
	return applied
}

// Reset restores the defaults
func (m *SettingsManager) Reset() Applied {
	return m.Update(func(s *Settings) { *s = DefaultSettings() })
}

// Set changes one setting by name from its string form
func (m *SettingsManager) Set(key, value string) (Applied, error) {
	value = strings.TrimSpace(value)
	var change func(*Settings)
	switch key {
	case "theme":
		v := strings.ToLower(value)
		if v != ThemeSystem && v != ThemeLight && v != ThemeDark {
			return Applied{}, fmt.Errorf("invalid theme %q: want system, light, or dark", value)
		}
		change = func(s *Settings) { s.Theme = v }
	case "typewriter", "userMarkdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Applied{}, fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
		if key == "typewriter" {
			change = func(s *Settings) { s.Typewriter = b }
		} else {
			change = func(s *Settings) { s.UserMarkdown = b }
		}
	case "typeSpeed", "bubbleWidth", "sidebarWidth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return Applied{}, fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
		switch key {
		case "typeSpeed":
			change = func(s *Settings) { s.TypeSpeed = n }
		case "bubbleWidth":
			change = func(s *Settings) { s.BubbleWidth = n }
		default:
			change = func(s *Settings) { s.SidebarWidth = n }
		}
	default:
		return Applied{}, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	return m.Update(change), nil
}

// SettingKeys lists the settable names
func SettingKeys() []string {
	keys := []string{"theme", "typewriter", "typeSpeed", "bubbleWidth", "sidebarWidth", "userMarkdown"}
	sort.Strings(keys)
	return keys
}

func (m *SettingsManager) apply(s Settings) Applied {
	theme := s.Theme
	if theme == ThemeSystem {
		theme = ThemeLight
		if m.DarkBackground != nil && m.DarkBackground() {
			theme = ThemeDark
		}
	}
	return Applied{
		Theme:          theme,
		Typewriter:     s.Typewriter,
		RevealInterval: time.Duration(s.TypeSpeed) * time.Millisecond,
		UserMarkdown:   s.UserMarkdown,
		Vars: map[string]string{
			"--msg-max":   fmt.Sprintf("%d%%", s.BubbleWidth),
			"--sidebar-w": fmt.Sprintf("%dpx", s.SidebarWidth),
		},
	}
}
