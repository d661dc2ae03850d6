package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/xerochat/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlMessage struct {
	Role      internal.Role    `json:"role"`
	Content   internal.Content `json:"content"`
	CreatedAt int64            `json:"createdAt,omitempty"`
}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range session.Messages {
		obj := jsonlMessage{Role: msg.Role, Content: msg.Content, CreatedAt: msg.CreatedAt}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
