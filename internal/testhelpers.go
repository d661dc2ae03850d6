package internal

import (
	"fmt"
	"time"
)

// CreateTestSession creates a test session with sample data
func CreateTestSession(id string) *Session {
	now := time.Now().UnixMilli()
	return &Session{
		ID:    id,
		Name:  "Test Conversation",
		Model: DefaultModel,
		Messages: []Message{
			{Role: RoleUser, Content: TextContent("Hello, how are you?"), CreatedAt: now},
			{Role: RoleAssistant, Content: TextContent("I'm doing well, thank you!"), CreatedAt: now},
		},
		Preview:   "I'm doing well, thank you!",
		UpdatedAt: now,
		CreatedAt: now,
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []Message) *Session {
	s := CreateTestSession(id)
	s.Messages = messages
	if len(messages) > 0 {
		s.Preview = TruncatePreview(messages[len(messages)-1].PreviewText(), PreviewLength)
	}
	return s
}

// NewTestStore creates a store over an in-memory KV with a deterministic clock and IDs
func NewTestStore(opts ...StoreOption) (*Store, *MemoryKV) {
	kv := NewMemoryKV()
	return NewTestStoreWithKV(kv, opts...), kv
}

// NewTestStoreWithKV creates a store over kv with a deterministic clock and IDs
func NewTestStoreWithKV(kv KVStore, opts ...StoreOption) *Store {
	clock := time.UnixMilli(1_700_000_000_000)
	n := 0
	base := []StoreOption{
		WithDefaultModel(DefaultModel),
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("session-%d", n)
		}),
	}
	return NewStore(NewPersistence(kv), append(base, opts...)...)
}
