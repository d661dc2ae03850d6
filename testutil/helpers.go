package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// LoadFixture loads a test fixture file
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", path))
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", path, err)
	}
	return data
}

// CreateTempDir creates a temporary directory removed when the test ends
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

// CompletionServer is a fake chat endpoint that records requests and replays canned responses
type CompletionServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  [][]byte
	responses []CannedResponse
}

// CannedResponse is one reply served by CompletionServer
type CannedResponse struct {
	Status int
	Body   string
}

// NewCompletionServer starts a server replying with responses in order.
// Once exhausted, the last response is repeated.
func NewCompletionServer(t *testing.T, responses ...CannedResponse) *CompletionServer {
	t.Helper()
	cs := &CompletionServer{responses: responses}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

// ReplyWith is a CannedResponse with an OpenAI-style message content string
func ReplyWith(content string) CannedResponse {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	})
	return CannedResponse{Status: http.StatusOK, Body: string(body)}
}

func (cs *CompletionServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	cs.mu.Lock()
	cs.requests = append(cs.requests, body)
	resp := CannedResponse{Status: http.StatusOK, Body: `{}`}
	if n := len(cs.responses); n > 0 {
		i := len(cs.requests) - 1
		if i >= n {
			i = n - 1
		}
		resp = cs.responses[i]
	}
	cs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

// Requests returns the raw request bodies received so far
func (cs *CompletionServer) Requests() [][]byte {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([][]byte(nil), cs.requests...)
}

// RequestCount returns the number of requests received
func (cs *CompletionServer) RequestCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.requests)
}
