package internal

import (
	"time"
)

// DefaultSessionName is used when a session is created without a name
const DefaultSessionName = "New Conversation"

// Session represents a stored conversation
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Preview   string    `json:"preview"`
	UpdatedAt int64     `json:"updatedAt"`           // unix ms
	CreatedAt int64     `json:"createdAt,omitempty"` // unix ms
}

// Message represents a single turn entry
type Message struct {
	Role      Role    `json:"role"`
	Content   Content `json:"content"`
	CreatedAt int64   `json:"createdAt,omitempty"`
}

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a role a stored message may have
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// KeepValidMessages drops messages whose role is neither user nor assistant
// and returns the number dropped
func (s *Session) KeepValidMessages() int {
	kept := make([]Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role.Valid() {
			kept = append(kept, m)
		}
	}
	dropped := len(s.Messages) - len(kept)
	s.Messages = kept
	return dropped
}

// GetUpdatedAt returns the last update time
func (s *Session) GetUpdatedAt() time.Time {
	return time.UnixMilli(s.UpdatedAt)
}

// GetCreatedAt returns the creation time, falling back to the update time
func (s *Session) GetCreatedAt() time.Time {
	if s.CreatedAt == 0 {
		return s.GetUpdatedAt()
	}
	return time.UnixMilli(s.CreatedAt)
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		c.Messages[i] = m.Clone()
	}
	return &c
}

// Clone returns a deep copy of the message
func (m Message) Clone() Message {
	m.Content = m.Content.Clone()
	return m
}

// PreviewText returns the text used for a session preview
func (m Message) PreviewText() string {
	if !m.Content.IsStructured() {
		return m.Content.Text
	}
	text := m.Content.JoinedText()
	if text == "" && m.Content.HasImages() {
		return ImagePreview
	}
	return text
}

// ImagePreview is the preview shown for messages that only carry images
const ImagePreview = "[image]"

// TruncatePreview shortens text to at most maxRunes runes, ending with an ellipsis when cut
func TruncatePreview(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 1 {
		return "…"
	}
	return string(runes[:maxRunes-1]) + "…"
}
