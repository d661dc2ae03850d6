package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Deduplicator detects sessions whose conversation content is identical
type Deduplicator struct{}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate removes duplicate sessions based on content hash, keeping the first.
// Sessions without messages are never duplicates.
func (d *Deduplicator) Deduplicate(sessions []*Session) []*Session {
	seen := make(map[string]bool)
	var unique []*Session

	for _, session := range sessions {
		if len(session.Messages) == 0 {
			unique = append(unique, session)
			continue
		}
		hash := d.ContentHash(session)
		if !seen[hash] {
			seen[hash] = true
			unique = append(unique, session)
		}
	}

	return unique
}

// FindDuplicate returns the session in existing with the same content as s
func (d *Deduplicator) FindDuplicate(s *Session, existing []*Session) (*Session, bool) {
	if len(s.Messages) == 0 {
		return nil, false
	}
	hash := d.ContentHash(s)
	for _, e := range existing {
		if d.ContentHash(e) == hash {
			return e, true
		}
	}
	return nil, false
}

// ContentHash hashes the roles and contents of a session's messages
func (d *Deduplicator) ContentHash(session *Session) string {
	h := sha256.New()

	for _, msg := range session.Messages {
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		content, err := json.Marshal(msg.Content)
		if err != nil {
			content = []byte(ExtractText(msg.Content))
		}
		h.Write(content)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
