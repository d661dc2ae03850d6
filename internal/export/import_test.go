package export

import (
	"strings"
	"testing"

	"github.com/iksnae/xerochat/internal"
)

func TestImportAll(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name:      "single document",
			input:     `{"id":"a","name":"A","messages":[{"role":"user","content":"hi"}],"updatedAt":1}`,
			wantCount: 1,
		},
		{
			name:      "list of documents",
			input:     `[{"id":"a","name":"A"},null,{"id":"b","name":"B"}]`,
			wantCount: 2,
		},
		{
			name:      "document without id",
			input:     `{"name":"orphan"}`,
			wantCount: 1,
		},
		{name: "empty", input: "  ", wantErr: true},
		{name: "malformed", input: `{"id":`, wantErr: true},
		{name: "empty list", input: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImportAll(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ImportAll() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != tt.wantCount {
				t.Errorf("ImportAll() returned %d sessions, want %d", len(got), tt.wantCount)
			}
			for _, s := range got {
				if s.Messages == nil {
					t.Errorf("ImportAll() session %q has nil messages", s.ID)
				}
			}
		})
	}
}

func TestImportAll_DropsUnsupportedRoles(t *testing.T) {
	input := `{"id":"a","messages":[
		{"role":"system","content":"be terse"},
		{"role":"user","content":"hi"},
		{"role":"tool","content":"{}"},
		{"role":"assistant","content":"hello"}]}`

	got, err := ImportAll(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportAll() error = %v", err)
	}
	msgs := got[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("ImportAll() kept %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != internal.RoleUser || msgs[1].Role != internal.RoleAssistant {
		t.Errorf("ImportAll() roles = %s, %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestImport_RejectsLists(t *testing.T) {
	if _, err := Import(strings.NewReader(`[{"id":"a"},{"id":"b"}]`)); err == nil {
		t.Error("Import() error = nil, want error for multiple sessions")
	}
}
