package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileKV is a KVStore keeping one file per key in a directory, with a YAML index
type FileKV struct {
	dir string
	mu  sync.Mutex
}

// FileIndexEntry describes one stored key
type FileIndexEntry struct {
	Key       string    `yaml:"key"`
	File      string    `yaml:"file"`
	Size      int       `yaml:"size"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// FileIndex is the YAML index of all keys in a FileKV directory
type FileIndex struct {
	Version string           `yaml:"version"`
	Entries []FileIndexEntry `yaml:"entries"`
}

const fileIndexVersion = "1"

// NewFileKV creates a FileKV rooted at dir. The directory is created on first write.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

// Dir returns the storage directory
func (f *FileKV) Dir() string {
	return f.dir
}

// GetIndexPath returns the path to the index YAML file
func (f *FileKV) GetIndexPath() string {
	return filepath.Join(f.dir, "index.yaml")
}

// GetValuePath returns the path of the file holding key
func (f *FileKV) GetValuePath(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".val")
}

func (f *FileKV) Get(key string) (string, error) {
	data, err := os.ReadFile(f.GetValuePath(key))
	if os.IsNotExist(err) {
		return "", &StorageError{Path: key, Op: "read", Err: ErrKeyNotFound}
	}
	if err != nil {
		return "", &StorageError{Path: f.GetValuePath(key), Op: "read", Err: err}
	}
	return string(data), nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return &StorageError{Path: f.dir, Op: "write", Err: err}
	}
	path := f.GetValuePath(key)
	if err := writeFileAtomic(path, []byte(value)); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return f.updateIndex(func(index *FileIndex) {
		entry := FileIndexEntry{Key: key, File: filepath.Base(path), Size: len(value), UpdatedAt: time.Now().UTC()}
		for i := range index.Entries {
			if index.Entries[i].Key == key {
				index.Entries[i] = entry
				return
			}
		}
		index.Entries = append(index.Entries, entry)
	})
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.GetValuePath(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &StorageError{Path: path, Op: "delete", Err: err}
	}
	return f.updateIndex(func(index *FileIndex) {
		kept := index.Entries[:0]
		for _, e := range index.Entries {
			if e.Key != key {
				kept = append(kept, e)
			}
		}
		index.Entries = kept
	})
}

func (f *FileKV) Keys(prefix string) ([]string, error) {
	index, err := f.LoadIndex()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range index.Entries {
		if strings.HasPrefix(e.Key, prefix) {
			keys = append(keys, e.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileKV) Close() error { return nil }

// LoadIndex loads the index, returning an empty one when none exists
func (f *FileKV) LoadIndex() (*FileIndex, error) {
	data, err := os.ReadFile(f.GetIndexPath())
	if os.IsNotExist(err) {
		return &FileIndex{Version: fileIndexVersion}, nil
	}
	if err != nil {
		return nil, &StorageError{Path: f.GetIndexPath(), Op: "read", Err: err}
	}

	var index FileIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, &ParseError{Source: "index", Key: f.GetIndexPath(), Err: err}
	}
	return &index, nil
}

func (f *FileKV) updateIndex(mutate func(*FileIndex)) error {
	index, err := f.LoadIndex()
	if err != nil {
		// a damaged index is rebuilt rather than blocking writes
		LogWarn("Rebuilding storage index: %v", err)
		index = &FileIndex{}
	}
	index.Version = fileIndexVersion
	mutate(index)

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := writeFileAtomic(f.GetIndexPath(), data); err != nil {
		return &StorageError{Path: f.GetIndexPath(), Op: "write", Err: err}
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory, then renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
