package internal

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/iksnae/xerochat/testutil"
)

// kvBackends returns every KVStore implementation over fresh, empty storage
func kvBackends(t *testing.T) map[string]KVStore {
	t.Helper()
	return map[string]KVStore{
		"sqlite": NewSQLiteKV(testutil.CreateInMemoryDB(t)),
		"file":   NewFileKV(filepath.Join(testutil.CreateTempDir(t), "store")),
		"memory": NewMemoryKV(),
	}
}

func TestKVStore_Contract(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrKeyNotFound", err)
			}

			if err := kv.Set("xerochat-a", "1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := kv.Set("xerochat-b", `{"x":"y"}`); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := kv.Set("other", "z"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := kv.Set("xerochat-a", "2"); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}

			got, err := kv.Get("xerochat-a")
			if err != nil || got != "2" {
				t.Errorf("Get() = %q, %v, want 2", got, err)
			}

			keys, err := kv.Keys("xerochat-")
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			if want := []string{"xerochat-a", "xerochat-b"}; !reflect.DeepEqual(keys, want) {
				t.Errorf("Keys() = %v, want %v", keys, want)
			}

			if err := kv.Delete("xerochat-a"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := kv.Delete("never-set"); err != nil {
				t.Errorf("Delete() of a missing key error = %v", err)
			}
			if _, err := kv.Get("xerochat-a"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get() after Delete() error = %v, want ErrKeyNotFound", err)
			}

			if err := kv.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestSQLiteKV_ReadsExistingRecords(t *testing.T) {
	kv := NewSQLiteKV(testutil.CreateTestDB(t))

	active, err := kv.Get(ActiveKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if active != "s2" {
		t.Errorf("Get(active) = %q, want s2", active)
	}
}

func TestSQLiteKV_PrefixWithWildcards(t *testing.T) {
	kv := NewSQLiteKV(testutil.CreateInMemoryDB(t))
	_ = kv.Set("a%b", "1")
	_ = kv.Set("axb", "2")

	keys, err := kv.Keys("a%")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a%b"}) {
		t.Errorf("Keys(a%%) = %v, want [a%%b]", keys)
	}
}

func TestOpenSQLiteKV_Persists(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "xerochat.db")

	kv, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("OpenSQLiteKV() error = %v", err)
	}
	if err := kv.Set(SettingsKey, "{}"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	kv.Close()

	reopened, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("OpenSQLiteKV() reopen error = %v", err)
	}
	defer reopened.Close()
	if got, err := reopened.Get(SettingsKey); err != nil || got != "{}" {
		t.Errorf("Get() after reopen = %q, %v", got, err)
	}
}

func TestMemoryKV_FailWrites(t *testing.T) {
	kv := NewMemoryKV()
	kv.FailWrites = errors.New("quota exceeded")

	err := kv.Set("k", "v")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Set() error = %v, want *StorageError", err)
	}
	if storageErr.Op != "write" {
		t.Errorf("StorageError.Op = %q, want write", storageErr.Op)
	}
}
