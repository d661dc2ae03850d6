package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLiteKV is a KVStore backed by the xerochatKV table
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// NewSQLiteKV wraps an already opened database. The schema must exist.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db, path: kvTable}
}

// OpenSQLiteKV opens the database file at path and returns a store over it
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteKV{db: db, path: path}, nil
}

// DB returns the underlying database handle
func (s *SQLiteKV) DB() *sql.DB {
	return s.db
}

func (s *SQLiteKV) Get(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM "+kvTable+" WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !value.Valid) {
		return "", &StorageError{Path: key, Op: "read", Err: ErrKeyNotFound}
	}
	if err != nil {
		return "", &StorageError{Path: key, Op: "read", Err: err}
	}
	return value.String, nil
}

func (s *SQLiteKV) Set(key, value string) error {
	stmt := "INSERT INTO " + kvTable + " (key, value) VALUES (?, ?) " +
		"ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := s.db.Exec(stmt, key, value); err != nil {
		return &StorageError{Path: key, Op: "write", Err: err}
	}
	return nil
}

func (s *SQLiteKV) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM "+kvTable+" WHERE key = ?", key); err != nil {
		return &StorageError{Path: key, Op: "delete", Err: err}
	}
	return nil
}

func (s *SQLiteKV) Keys(prefix string) ([]string, error) {
	pairs, err := QueryKV(s.db, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if strings.HasPrefix(p.Key, prefix) {
			keys = append(keys, p.Key)
		}
	}
	return keys, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// escapeLike neutralizes LIKE wildcards. SQLite has no default escape character,
// so matches are re-checked with a prefix comparison instead.
func escapeLike(s string) string {
	return strings.NewReplacer("%", "_").Replace(s)
}
