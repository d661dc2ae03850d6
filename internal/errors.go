package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a turn has neither text nor attachments
	ErrEmptyInput = errors.New("nothing to send")
	// ErrNoActiveSession is returned when a turn is attempted with no active session
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionNotFound is returned when a session ID does not resolve
	ErrSessionNotFound = errors.New("session not found")
	// ErrKeyNotFound is returned by key-value stores for missing keys
	ErrKeyNotFound = errors.New("key not found")
	// ErrAttachmentTooLarge is returned for attachments above MaxAttachmentSize
	ErrAttachmentTooLarge = errors.New("attachment too large")
	// ErrUnsupportedAttachment is returned for files that are not images
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
)

// StorageError represents errors accessing storage files
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "sessions", "settings", "config", "import"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ImportError represents errors importing a session file
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error %s: %v", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// AttachmentError represents errors loading an attachment
type AttachmentError struct {
	Path string
	Err  error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment error %s: %v", e.Path, e.Err)
}

func (e *AttachmentError) Unwrap() error {
	return e.Err
}
