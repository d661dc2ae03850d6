package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/xerochat/testutil"
)

func TestNewFileKV(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	f := NewFileKV(dir)
	if f.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", f.Dir(), dir)
	}
	if got := f.GetIndexPath(); got != filepath.Join(dir, "index.yaml") {
		t.Errorf("GetIndexPath() = %q", got)
	}
}

func TestFileKV_GetValuePath_EscapesKeys(t *testing.T) {
	f := NewFileKV("/store")
	got := f.GetValuePath("a/b")
	if filepath.Dir(got) != "/store" {
		t.Errorf("GetValuePath() = %q escapes the store directory", got)
	}
}

func TestFileKV_Index(t *testing.T) {
	f := NewFileKV(filepath.Join(testutil.CreateTempDir(t), "store"))

	index, err := f.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() on empty store error = %v", err)
	}
	if len(index.Entries) != 0 {
		t.Errorf("LoadIndex() on empty store returned %d entries", len(index.Entries))
	}

	if err := f.Set(SessionsKey, "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.Set(SessionsKey, "[1]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	index, err = f.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(index.Entries) != 1 {
		t.Fatalf("LoadIndex() returned %d entries, want 1", len(index.Entries))
	}
	entry := index.Entries[0]
	if entry.Key != SessionsKey || entry.Size != 3 {
		t.Errorf("index entry = %+v, want key %s size 3", entry, SessionsKey)
	}
	if entry.UpdatedAt.IsZero() {
		t.Error("index entry should record an update time")
	}
}

func TestFileKV_RebuildsCorruptIndex(t *testing.T) {
	dir := filepath.Join(testutil.CreateTempDir(t), "store")
	f := NewFileKV(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.GetIndexPath(), []byte("entries: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := f.Set(ActiveKey, "s1"); err != nil {
		t.Fatalf("Set() with corrupt index error = %v", err)
	}
	keys, err := f.Keys("")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != ActiveKey {
		t.Errorf("Keys() = %v, want [%s]", keys, ActiveKey)
	}
}
