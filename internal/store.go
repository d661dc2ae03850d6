package internal

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PreviewLength is the maximum preview length in runes
const PreviewLength = 80

// Listener is notified after every committed store mutation.
// Callbacks run while the store is locked and must not call back into the store.
type Listener interface {
	SessionsChanged(sessions []*Session, activeID string)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(sessions []*Session, activeID string)

func (f ListenerFunc) SessionsChanged(sessions []*Session, activeID string) {
	f(sessions, activeID)
}

// Store owns the session collection and the active session pointer.
// Every mutation persists and notifies before the next one can start.
type Store struct {
	mu        sync.Mutex
	persist   *Persistence
	sessions  []*Session
	activeID  string
	listeners []Listener

	defaultModel string
	now          func() time.Time
	newID        func() string
	lastStamp    int64
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithDefaultModel sets the model assigned to new sessions
func WithDefaultModel(model string) StoreOption {
	return func(s *Store) { s.defaultModel = model }
}

// WithClock replaces the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the session ID generator
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// WithListener registers a listener
func WithListener(l Listener) StoreOption {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

// NewStore loads sessions from p and restores the active pointer.
// A missing or dangling pointer falls back to the most recent session;
// when no sessions exist a fresh one is created.
func NewStore(p *Persistence, opts ...StoreOption) *Store {
	s := &Store{
		persist: p,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sessions = p.LoadSessions()
	for _, sess := range s.sessions {
		if sess.UpdatedAt > s.lastStamp {
			s.lastStamp = sess.UpdatedAt
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = p.LoadActive()
	if s.indexOf(s.activeID) < 0 {
		if len(s.sessions) == 0 {
			s.createLocked("")
			return s
		}
		s.activeID = s.mostRecentLocked().ID
		s.commitActive()
	}
	return s
}

// AddListener registers l for future notifications
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Create adds a new empty session at the front of the list and makes it active
func (s *Store) Create(name string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(name).Clone()
}

func (s *Store) createLocked(name string) *Session {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionName
	}
	stamp := s.stamp()
	sess := &Session{
		ID:        s.newID(),
		Name:      name,
		Model:     s.defaultModel,
		Messages:  []Message{},
		UpdatedAt: stamp,
		CreatedAt: stamp,
	}
	s.sessions = append([]*Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.commitSessions()
	s.commitActive()
	s.notify()
	return sess
}

// SetActive makes id the active session
func (s *Store) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return false
	}
	s.activeID = id
	s.commitActive()
	s.notify()
	return true
}

// Rename renames a session. A blank name keeps the previous one.
func (s *Store) Rename(id, name string) bool {
	return s.mutate(id, func(sess *Session) {
		if name = strings.TrimSpace(name); name != "" {
			sess.Name = name
		}
	})
}

// Delete removes a session. Deleting the active session activates the
// most recent remaining one, or clears the pointer when none remain.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	s.commitSessions()
	if s.activeID == id {
		s.activeID = ""
		if next := s.mostRecentLocked(); next != nil {
			s.activeID = next.ID
		}
		s.commitActive()
	}
	s.notify()
	return true
}

// TouchPreview sets the preview text and bumps updatedAt
func (s *Store) TouchPreview(id, text string) bool {
	return s.mutate(id, func(sess *Session) {
		sess.Preview = TruncatePreview(text, PreviewLength)
	})
}

// Append adds a message to a session and updates its preview
func (s *Store) Append(id string, msg Message) bool {
	msg = msg.Clone()
	return s.mutate(id, func(sess *Session) {
		if msg.CreatedAt == 0 {
			msg.CreatedAt = sess.UpdatedAt
		}
		sess.Messages = append(sess.Messages, msg)
		sess.Preview = TruncatePreview(msg.PreviewText(), PreviewLength)
	})
}

// Clear removes every message of a session
func (s *Store) Clear(id string) bool {
	return s.mutate(id, func(sess *Session) {
		sess.Messages = []Message{}
		sess.Preview = ""
	})
}

// SetModel changes the model used for a session's next turns
func (s *Store) SetModel(id, model string) bool {
	return s.mutate(id, func(sess *Session) {
		sess.Model = strings.TrimSpace(model)
	})
}

// Import adds a copy of sess. An ID already in the store is replaced with a new one.
func (s *Store) Import(sess *Session) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := sess.Clone()
	if c.ID == "" || s.indexOf(c.ID) >= 0 {
		c.ID = s.newID()
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = DefaultSessionName
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if c.Model == "" {
		c.Model = s.defaultModel
	}
	c.UpdatedAt = s.stamp()
	if c.CreatedAt == 0 {
		c.CreatedAt = c.UpdatedAt
	}
	s.sessions = append([]*Session{c}, s.sessions...)
	s.commitSessions()
	s.notify()
	return c.Clone()
}

// Get returns a copy of the session with id
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return nil, false
}

// Active returns a copy of the active session
func (s *Store) Active() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(s.activeID); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return nil, false
}

// ActiveID returns the active session ID, or "" when none is active
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Len returns the number of sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// List returns copies of the sessions, most recently updated first, whose
// name or preview contains filter case-insensitively. An empty filter matches all.
func (s *Store) List(filter string) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(filter)
}

func (s *Store) listLocked(filter string) []*Session {
	filter = strings.ToLower(strings.TrimSpace(filter))
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if filter != "" &&
			!strings.Contains(strings.ToLower(sess.Name), filter) &&
			!strings.Contains(strings.ToLower(sess.Preview), filter) {
			continue
		}
		out = append(out, sess.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

// Resolve finds a session by exact ID, unique ID prefix, or exact name (case-insensitive)
func (s *Store) Resolve(ref string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	if i := s.indexOf(ref); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	var match *Session
	for _, sess := range s.sessions {
		if strings.HasPrefix(sess.ID, ref) || strings.EqualFold(sess.Name, ref) {
			if match != nil {
				return nil, false
			}
			match = sess
		}
	}
	if match == nil {
		return nil, false
	}
	return match.Clone(), true
}

func (s *Store) mutate(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	sess := s.sessions[i]
	sess.UpdatedAt = s.stamp()
	fn(sess)
	s.commitSessions()
	s.notify()
	return true
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) mostRecentLocked() *Session {
	var best *Session
	for _, sess := range s.sessions {
		if best == nil || sess.UpdatedAt > best.UpdatedAt {
			best = sess
		}
	}
	return best
}

// stamp returns a millisecond timestamp strictly greater than any issued before
func (s *Store) stamp() int64 {
	ms := s.now().UnixMilli()
	if ms <= s.lastStamp {
		ms = s.lastStamp + 1
	}
	s.lastStamp = ms
	return ms
}

func (s *Store) commitSessions() {
	if err := s.persist.SaveSessions(s.sessions); err != nil {
		LogWarn("Failed to persist sessions: %v", err)
	}
}

func (s *Store) commitActive() {
	if err := s.persist.SaveActive(s.activeID); err != nil {
		LogWarn("Failed to persist active session: %v", err)
	}
}

func (s *Store) notify() {
	if len(s.listeners) == 0 {
		return
	}
	list := s.listLocked("")
	for _, l := range s.listeners {
		l.SessionsChanged(list, s.activeID)
	}
}
