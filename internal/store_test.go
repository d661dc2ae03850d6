package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestNewStore_CreatesSessionWhenEmpty(t *testing.T) {
	s, kv := NewTestStore()

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	active, ok := s.Active()
	if !ok {
		t.Fatal("Active() returned no session")
	}
	if active.Name != DefaultSessionName {
		t.Errorf("Name = %q, want %q", active.Name, DefaultSessionName)
	}
	if active.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", active.Model, DefaultModel)
	}
	if stored, _ := kv.Get(ActiveKey); stored != active.ID {
		t.Errorf("stored active = %q, want %q", stored, active.ID)
	}
}

func TestNewStore_RestoresActivePointer(t *testing.T) {
	tests := []struct {
		name       string
		active     string
		wantActive string
	}{
		{"valid pointer", "old", "old"},
		{"dangling pointer falls back to most recent", "gone", "new"},
		{"no pointer falls back to most recent", "", "new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			_ = kv.Set(SessionsKey, `[{"id":"old","name":"Old","model":"m","messages":[],"preview":"","updatedAt":100},`+
				`{"id":"new","name":"New","model":"m","messages":[],"preview":"","updatedAt":200}]`)
			if tt.active != "" {
				_ = kv.Set(ActiveKey, tt.active)
			}

			s := NewTestStoreWithKV(kv)
			if got := s.ActiveID(); got != tt.wantActive {
				t.Errorf("ActiveID() = %q, want %q", got, tt.wantActive)
			}
			if s.Len() != 2 {
				t.Errorf("Len() = %d, want 2", s.Len())
			}
		})
	}
}

func TestStore_CreateRenameDelete(t *testing.T) {
	s, _ := NewTestStore()
	first := s.ActiveID()

	second := s.Create("Draft")
	if s.ActiveID() != second.ID {
		t.Errorf("Create() did not activate the new session")
	}

	if !s.Rename(second.ID, "Plan") {
		t.Fatal("Rename() returned false")
	}
	got, _ := s.Get(second.ID)
	if got.Name != "Plan" {
		t.Errorf("Name = %q, want Plan", got.Name)
	}

	if !s.Delete(second.ID) {
		t.Fatal("Delete() returned false")
	}
	if s.ActiveID() != first {
		t.Errorf("ActiveID() after deleting the active session = %q, want %q", s.ActiveID(), first)
	}

	if !s.Delete(first) {
		t.Fatal("Delete() returned false")
	}
	if s.ActiveID() != "" {
		t.Errorf("ActiveID() after deleting everything = %q, want empty", s.ActiveID())
	}
	if _, ok := s.Active(); ok {
		t.Error("Active() should report no session")
	}
}

func TestStore_RenameBlankKeepsNameButUpdates(t *testing.T) {
	s, _ := NewTestStore()
	id := s.ActiveID()
	before, _ := s.Get(id)

	if !s.Rename(id, "   ") {
		t.Fatal("Rename() returned false")
	}
	after, _ := s.Get(id)
	if after.Name != before.Name {
		t.Errorf("Name = %q, want %q", after.Name, before.Name)
	}
	if after.UpdatedAt <= before.UpdatedAt {
		t.Errorf("UpdatedAt = %d, want > %d", after.UpdatedAt, before.UpdatedAt)
	}
}

func TestStore_UnknownIDs(t *testing.T) {
	s, _ := NewTestStore()

	if s.SetActive("nope") {
		t.Error("SetActive(unknown) = true")
	}
	if s.Rename("nope", "x") {
		t.Error("Rename(unknown) = true")
	}
	if s.Delete("nope") {
		t.Error("Delete(unknown) = true")
	}
	if s.TouchPreview("nope", "x") {
		t.Error("TouchPreview(unknown) = true")
	}
	if s.Append("nope", Message{Role: RoleUser, Content: TextContent("x")}) {
		t.Error("Append(unknown) = true")
	}
}

func TestStore_TouchPreviewTruncates(t *testing.T) {
	s, _ := NewTestStore()
	id := s.ActiveID()

	s.TouchPreview(id, strings.Repeat("x", 120))
	got, _ := s.Get(id)
	runes := []rune(got.Preview)
	if len(runes) != PreviewLength {
		t.Errorf("Preview has %d runes, want %d", len(runes), PreviewLength)
	}
	if runes[len(runes)-1] != '…' {
		t.Errorf("Preview = %q, want trailing ellipsis", got.Preview)
	}
}

func TestStore_AppendUpdatesPreview(t *testing.T) {
	s, _ := NewTestStore()
	id := s.ActiveID()

	s.Append(id, Message{Role: RoleUser, Content: PartsContent(ImagePart("data:image/png;base64,AA=="))})
	got, _ := s.Get(id)
	if got.Preview != ImagePreview {
		t.Errorf("Preview = %q, want %q", got.Preview, ImagePreview)
	}

	s.Append(id, Message{Role: RoleAssistant, Content: TextContent("It is a pixel.")})
	got, _ = s.Get(id)
	if got.Preview != "It is a pixel." {
		t.Errorf("Preview = %q, want the reply", got.Preview)
	}
	if len(got.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].CreatedAt == 0 {
		t.Error("Append() should stamp CreatedAt")
	}
}

func TestStore_UpdatedAtStrictlyIncreases(t *testing.T) {
	s, _ := NewTestStore()
	id := s.ActiveID()

	last := int64(0)
	for i := 0; i < 5; i++ {
		s.TouchPreview(id, "x")
		got, _ := s.Get(id)
		if got.UpdatedAt <= last {
			t.Fatalf("UpdatedAt = %d, want > %d", got.UpdatedAt, last)
		}
		last = got.UpdatedAt
	}
}

func TestStore_List(t *testing.T) {
	s, _ := NewTestStore()
	a := s.ActiveID()
	b := s.Create("Golang tips").ID
	c := s.Create("Recipes").ID
	s.TouchPreview(a, "talking about GOLANG generics")

	all := s.List("")
	if len(all) != 3 {
		t.Fatalf("List() returned %d, want 3", len(all))
	}
	if all[0].ID != a || all[1].ID != c || all[2].ID != b {
		t.Errorf("List() order = %s,%s,%s, want %s,%s,%s", all[0].ID, all[1].ID, all[2].ID, a, c, b)
	}

	filtered := s.List("golang")
	if len(filtered) != 2 {
		t.Fatalf("List(golang) returned %d, want 2", len(filtered))
	}
	if filtered[0].ID != a || filtered[1].ID != b {
		t.Errorf("List(golang) = %s,%s, want %s,%s", filtered[0].ID, filtered[1].ID, a, b)
	}
}

func TestStore_ReadsAreCopies(t *testing.T) {
	s, _ := NewTestStore()
	id := s.ActiveID()
	s.Append(id, Message{Role: RoleUser, Content: TextContent("original")})

	got, _ := s.Get(id)
	got.Messages[0].Content.Text = "mutated"
	got.Name = "mutated"

	again, _ := s.Get(id)
	if again.Messages[0].Content.Text != "original" || again.Name == "mutated" {
		t.Error("mutating a returned session changed the store")
	}
}

func TestStore_ClearAndSetModel(t *testing.T) {
	s, _ := NewTestStore()
	id := s.ActiveID()
	s.Append(id, Message{Role: RoleUser, Content: TextContent("hi")})

	s.SetModel(id, "openrouter/x/y")
	got, _ := s.Get(id)
	if got.Model != "openrouter/x/y" {
		t.Errorf("Model = %q", got.Model)
	}
	if len(got.Messages) != 1 {
		t.Error("SetModel() must not touch messages")
	}

	s.Clear(id)
	got, _ = s.Get(id)
	if len(got.Messages) != 0 || got.Messages == nil {
		t.Errorf("Messages after Clear() = %v, want empty", got.Messages)
	}
}

func TestStore_Import(t *testing.T) {
	s, _ := NewTestStore()
	existing := s.ActiveID()

	imported := s.Import(&Session{ID: existing, Name: "", Messages: nil})
	if imported.ID == existing {
		t.Error("Import() kept a colliding ID")
	}
	if imported.Name != DefaultSessionName {
		t.Errorf("Name = %q, want default", imported.Name)
	}
	if imported.Messages == nil {
		t.Error("Import() left nil messages")
	}
	if s.ActiveID() != existing {
		t.Error("Import() should not change the active session")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStore_Resolve(t *testing.T) {
	s, _ := NewTestStore()
	s.Create("Alpha")
	s.Create("Beta")

	tests := []struct {
		ref    string
		wantOK bool
		want   string
	}{
		{"session-2", true, "Alpha"},
		{"beta", true, "Beta"},
		{"session-", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := s.Resolve(tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.ref, ok, tt.wantOK)
			}
			if ok && got.Name != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got.Name, tt.want)
			}
		})
	}
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	s, kv := NewTestStore()
	kv.FailWrites = errors.New("quota exceeded")

	created := s.Create("offline")
	if got, ok := s.Get(created.ID); !ok || got.Name != "offline" {
		t.Error("in-memory state should reflect the mutation when persisting fails")
	}
}

func TestStore_ListenerNotified(t *testing.T) {
	var calls int
	var lastActive string
	s, _ := NewTestStore(WithListener(ListenerFunc(func(sessions []*Session, activeID string) {
		calls++
		lastActive = activeID
	})))
	before := calls

	created := s.Create("x")
	if calls != before+1 {
		t.Errorf("listener calls = %d, want %d", calls, before+1)
	}
	if lastActive != created.ID {
		t.Errorf("listener active = %q, want %q", lastActive, created.ID)
	}
}
