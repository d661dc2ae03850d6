package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Storage keys. The names and value formats are stable across versions.
const (
	KeyPrefix   = "xerochat-"
	SessionsKey = "xerochat-sessions-v1"
	ActiveKey   = "xerochat-active-v1"
	SettingsKey = "xerochat-settings-v1"
)

// Persistence reads and writes the session list, active pointer, and settings
type Persistence struct {
	kv KVStore
}

// NewPersistence creates a Persistence over kv
func NewPersistence(kv KVStore) *Persistence {
	return &Persistence{kv: kv}
}

// KV returns the underlying store
func (p *Persistence) KV() KVStore {
	return p.kv
}

// LoadSessions reads the stored session list. Missing or unreadable data yields an empty list.
func (p *Persistence) LoadSessions() []*Session {
	raw, err := p.kv.Get(SessionsKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			LogWarn("Failed to read sessions: %v", err)
		}
		return []*Session{}
	}

	sessions, err := DecodeSessions([]byte(raw))
	if err != nil {
		LogWarn("Ignoring unreadable session data: %v", &ParseError{Source: "sessions", Key: SessionsKey, Err: err})
		return []*Session{}
	}
	return sessions
}

// SaveSessions writes the full session list
func (p *Persistence) SaveSessions(sessions []*Session) error {
	if sessions == nil {
		sessions = []*Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return p.kv.Set(SessionsKey, string(data))
}

// LoadActive returns the stored active session ID, or "" when none is stored
func (p *Persistence) LoadActive() string {
	raw, err := p.kv.Get(ActiveKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			LogWarn("Failed to read active session: %v", err)
		}
		return ""
	}
	return strings.TrimSpace(raw)
}

// SaveActive stores the active session ID; an empty ID removes the pointer
func (p *Persistence) SaveActive(id string) error {
	if id == "" {
		return p.kv.Delete(ActiveKey)
	}
	return p.kv.Set(ActiveKey, id)
}

// LoadSettings returns stored settings merged over the defaults
func (p *Persistence) LoadSettings() Settings {
	raw, err := p.kv.Get(SettingsKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			LogWarn("Failed to read settings: %v", err)
		}
		return DefaultSettings()
	}
	return DecodeSettings([]byte(raw))
}

// SaveSettings writes the settings record
func (p *Persistence) SaveSettings(s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return p.kv.Set(SettingsKey, string(data))
}

// DecodeSessions parses a stored session list, dropping entries without an ID
func DecodeSessions(data []byte) ([]*Session, error) {
	var decoded []*Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	sessions := make([]*Session, 0, len(decoded))
	for _, s := range decoded {
		if s == nil || s.ID == "" {
			LogDebug("Dropping stored session without an ID")
			continue
		}
		if s.Messages == nil {
			s.Messages = []Message{}
		}
		if n := s.KeepValidMessages(); n > 0 {
			LogDebug("Dropping %d stored message(s) with an unsupported role", n)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
