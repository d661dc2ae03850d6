package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/xerochat/internal"
)

// JSONExporter exports the session document as stored (pretty-printed).
// The output can be read back with Import.
type JSONExporter struct{}

// Export exports a session to JSON format
func (e *JSONExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(session)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
