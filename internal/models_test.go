package internal

import (
	"encoding/json"
	"testing"
)

func TestContent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantStructured bool
		wantText       string
		wantParts      int
	}{
		{"string", `"hello"`, false, "hello", 0},
		{"null", `null`, false, "", 0},
		{"empty array", `[]`, true, "", 0},
		{"parts", `[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"data:x"}}]`, true, "a", 2},
		{"object", `{"weird":true}`, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			if err := json.Unmarshal([]byte(tt.input), &c); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if c.IsStructured() != tt.wantStructured {
				t.Errorf("IsStructured() = %v, want %v", c.IsStructured(), tt.wantStructured)
			}
			if got := c.JoinedText(); got != tt.wantText {
				t.Errorf("JoinedText() = %q, want %q", got, tt.wantText)
			}
			if len(c.Parts) != tt.wantParts {
				t.Errorf("len(Parts) = %d, want %d", len(c.Parts), tt.wantParts)
			}
		})
	}
}

func TestContent_PreservesShapeAndUnknownParts(t *testing.T) {
	inputs := []string{
		`"plain text"`,
		`[{"type":"text","text":"hi","cache_control":{"type":"ephemeral"}}]`,
		`[{"type":"input_audio","input_audio":{"data":"AAA","format":"wav"}},{"type":"text","text":"x"}]`,
		`[{"type":"image_url","image_url":{"url":"https://example.com/a.png","detail":"low"}}]`,
		`{"unexpected":"shape"}`,
	}

	for _, input := range inputs {
		var c Content
		if err := json.Unmarshal([]byte(input), &c); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", input, err)
		}
		out, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(out) != input {
			t.Errorf("round trip = %s, want %s", out, input)
		}
	}
}

func TestPart_ImageURLAsString(t *testing.T) {
	var p Part
	if err := json.Unmarshal([]byte(`{"type":"image_url","image_url":"data:image/png;base64,AA=="}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.ImageURL == nil || p.ImageURL.URL != "data:image/png;base64,AA==" {
		t.Errorf("ImageURL = %+v, want the string URL", p.ImageURL)
	}
}

func TestPartsContent_BuiltInCode(t *testing.T) {
	c := PartsContent(TextPart("look"), ImagePart("data:image/png;base64,AA=="))
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `[{"type":"text","text":"look"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AA=="}}]`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := CreateTestSessionWithMessages("s1", []Message{
		{Role: RoleUser, Content: PartsContent(TextPart("a"), ImagePart("u1"))},
	})
	c := s.Clone()

	c.Messages[0].Content.Parts[0].Text = "changed"
	c.Messages[0].Content.Parts[1].ImageURL.URL = "u2"
	c.Name = "other"

	if s.Messages[0].Content.Parts[0].Text != "a" {
		t.Error("Clone() shares part slices with the original")
	}
	if s.Messages[0].Content.Parts[1].ImageURL.URL != "u1" {
		t.Error("Clone() shares image URLs with the original")
	}
	if s.Name != "Test Conversation" {
		t.Error("Clone() shares fields with the original")
	}
}

func TestSession_GetCreatedAt(t *testing.T) {
	s := &Session{UpdatedAt: 2000}
	if got := s.GetCreatedAt().UnixMilli(); got != 2000 {
		t.Errorf("GetCreatedAt() without a creation time = %d, want 2000", got)
	}
	s.CreatedAt = 1000
	if got := s.GetCreatedAt().UnixMilli(); got != 1000 {
		t.Errorf("GetCreatedAt() = %d, want 1000", got)
	}
}

func TestRole_Valid(t *testing.T) {
	for role, want := range map[Role]bool{RoleUser: true, RoleAssistant: true, "system": false, "tool": false, "": false} {
		if got := role.Valid(); got != want {
			t.Errorf("Role(%q).Valid() = %v, want %v", role, got, want)
		}
	}
}

func TestMessage_PreviewText(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"plain", Message{Role: RoleUser, Content: TextContent("hello")}, "hello"},
		{"text and image", Message{Role: RoleUser, Content: PartsContent(TextPart("look"), ImagePart("u"))}, "look"},
		{"image only", Message{Role: RoleUser, Content: PartsContent(ImagePart("u"))}, ImagePreview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.PreviewText(); got != tt.want {
				t.Errorf("PreviewText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncatePreview(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "é"
	}

	tests := []struct {
		name      string
		text      string
		wantRunes int
		wantCut   bool
	}{
		{"short", "hello", 5, false},
		{"exact", long[:160], 80, false},
		{"long", long, 80, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePreview(tt.text, 80)
			runes := []rune(got)
			if len(runes) != tt.wantRunes {
				t.Errorf("TruncatePreview() has %d runes, want %d", len(runes), tt.wantRunes)
			}
			if cut := runes[len(runes)-1] == '…'; cut != tt.wantCut {
				t.Errorf("TruncatePreview() ellipsis = %v, want %v", cut, tt.wantCut)
			}
		})
	}
}
