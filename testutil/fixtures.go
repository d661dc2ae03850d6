package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Storage keys, duplicated here so fixtures can be written without importing internal
const (
	SessionsKey = "xerochat-sessions-v1"
	ActiveKey   = "xerochat-active-v1"
	SettingsKey = "xerochat-settings-v1"
)

// SampleSessionsJSON is a stored session list with a plain and a structured conversation
const SampleSessionsJSON = `[` +
	`{"id":"s1","name":"Go questions","model":"openai/gpt-oss-20b","messages":[` +
	`{"role":"user","content":"What is a goroutine?"},` +
	`{"role":"assistant","content":"A lightweight thread managed by the Go runtime."}],` +
	`"preview":"A lightweight thread managed by the Go runtime.","updatedAt":1700000001000},` +
	`{"id":"s2","name":"Image chat","model":"openrouter/meta-llama/llama-3.2-11b-vision-instruct","messages":[` +
	`{"role":"user","content":[{"type":"text","text":"What is this?"},{"type":"image_url","image_url":{"url":"data:image/png;base64,iVBORw0KGgo="}}]},` +
	`{"role":"assistant","content":"A tiny PNG header."}],` +
	`"preview":"A tiny PNG header.","updatedAt":1700000002000}` +
	`]`

// SampleSettingsJSON is a stored settings record with non-default values
const SampleSettingsJSON = `{"theme":"dark","typewriter":false,"typeSpeed":20,"bubbleWidth":80,"sidebarWidth":300,"userMarkdown":true}`

// CreateSQLiteFixture creates a SQLite database file holding the sample records
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createKVTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	insertSQL := "INSERT OR REPLACE INTO xerochatKV (key, value) VALUES (?, ?)"
	for key, value := range map[string]string{
		SessionsKey: SampleSessionsJSON,
		ActiveKey:   "s2",
		SettingsKey: SampleSettingsJSON,
	} {
		if _, err := db.Exec(insertSQL, key, value); err != nil {
			t.Fatalf("Failed to insert %s: %v", key, err)
		}
	}
}
