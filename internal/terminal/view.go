// Package terminal displays conversations in a terminal.
package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/chat"
	"github.com/iksnae/xerochat/internal/render"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

const defaultWidth = 80

var _ chat.View = (*View)(nil)

var (
	userLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	systemLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

// View writes messages to a terminal. When the output is not a terminal the
// reveal effect and spinner are skipped and only final text is written.
type View struct {
	mu          sync.Mutex
	w           io.Writer
	out         *termenv.Output
	interactive bool
	termWidth   int
	bubble      int // percent of the terminal width used for message text
	theme       string
	renderer    *glamour.TermRenderer
}

// Option configures a View
type Option func(*View)

// WithInteractive overrides terminal detection
func WithInteractive(interactive bool) Option {
	return func(v *View) { v.interactive = interactive }
}

// WithWidth overrides the detected terminal width
func WithWidth(width int) Option {
	return func(v *View) { v.termWidth = width }
}

// New creates a view writing to w
func New(w io.Writer, opts ...Option) *View {
	v := &View{
		w:           w,
		out:         termenv.NewOutput(w),
		interactive: internal.IsTerminal(w),
		termWidth:   internal.TerminalWidth(w, defaultWidth),
		bubble:      internal.MaxBubbleWidth,
		theme:       internal.ThemeDark,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.renderer = v.newRenderer()
	return v
}

// Apply takes the theme and message width from applied settings
func (v *View) Apply(a internal.Applied) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if a.Theme != "" {
		v.theme = a.Theme
	}
	if pct, err := strconv.Atoi(strings.TrimSuffix(a.Vars["--msg-max"], "%")); err == nil && pct > 0 {
		v.bubble = pct
	}
	v.renderer = v.newRenderer()
}

// Width returns the column count used for message text
func (v *View) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width()
}

func (v *View) width() int {
	w := v.termWidth * v.bubble / 100
	if w < 20 {
		w = 20
	}
	return w
}

func (v *View) newRenderer() *glamour.TermRenderer {
	style := v.theme
	if !v.interactive {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(v.width()),
	)
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

// Clear clears the screen when attached to a terminal
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.interactive {
		v.out.ClearScreen()
		v.out.MoveCursor(1, 1)
	}
}

// ShowEmptyState tells the user there is no conversation to show
func (v *View) ShowEmptyState() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, dimStyle.Render("No conversation selected. Start one with /new."))
}

// ShowMessage prints a labelled message
func (v *View) ShowMessage(role internal.Role, out render.Output) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, label(role))
	fmt.Fprintln(v.w, v.body(out))
}

// Placeholder prints the assistant label and returns a slot for the reply
func (v *View) Placeholder(key string) chat.Slot {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, label(internal.RoleAssistant))
	return &slot{v: v, key: key}
}

// body renders out for the terminal. Markdown goes through glamour; plain
// text is wrapped to the message width.
func (v *View) body(out render.Output) string {
	if out.Markdown && v.renderer != nil {
		if s, err := v.renderer.Render(out.Source); err == nil {
			return strings.TrimRight(s, "\n")
		}
	}
	return lipgloss.NewStyle().Width(v.width()).Render(out.Source)
}

func label(role internal.Role) string {
	switch role {
	case internal.RoleUser:
		return userLabel.Render("You")
	case internal.RoleAssistant:
		return assistantLabel.Render("Assistant")
	}
	return systemLabel.Render(string(role))
}

// rows counts the terminal rows text occupies at width
func rows(text string, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	n := 0
	for _, line := range strings.Split(text, "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			n++
			continue
		}
		n += (w + width - 1) / width
	}
	return n
}

// slot is one reply placeholder. Revealed text is written raw and erased again
// when the final render replaces it.
type slot struct {
	v   *View
	key string

	mu          sync.Mutex
	stopSpinner func()
	revealed    strings.Builder
	done        bool
}

func (s *slot) Loading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.v.interactive && s.stopSpinner == nil {
		s.stopSpinner = internal.StartSpinner(s.v.w, "Thinking...")
	}
}

func (s *slot) stopLoading() {
	if s.stopSpinner != nil {
		s.stopSpinner()
		s.stopSpinner = nil
	}
}

func (s *slot) AppendText(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || !s.v.interactive {
		return
	}
	s.stopLoading()
	s.revealed.WriteString(chunk)
	s.v.mu.Lock()
	fmt.Fprint(s.v.w, chunk)
	s.v.mu.Unlock()
}

// Revealing is false when the output is not a terminal, so no reveal is run
func (s *slot) Revealing() bool { return s.v.interactive }

// AtBottom is always true: a terminal follows its output
func (s *slot) AtBottom() bool { return true }

func (s *slot) ScrollToBottom() {}

func (s *slot) Replace(out render.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLoading()
	s.done = true

	s.v.mu.Lock()
	defer s.v.mu.Unlock()
	if s.revealed.Len() > 0 {
		s.v.out.ClearLines(rows(s.revealed.String(), s.v.termWidth) - 1)
		fmt.Fprint(s.v.w, "\r")
		s.revealed.Reset()
	}
	fmt.Fprintln(s.v.w, s.v.body(out))
}

func (s *slot) ShowError(msg string) {
	s.finish(internal.ErrorText(msg))
}

func (s *slot) ShowEmpty() {
	s.finish(dimStyle.Render(chat.NoResponseMarker))
}

func (s *slot) finish(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLoading()
	s.done = true

	s.v.mu.Lock()
	defer s.v.mu.Unlock()
	fmt.Fprintln(s.v.w, line)
}
