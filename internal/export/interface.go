package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/render"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session *internal.Session, w io.Writer) error
	Extension() string
}

// Option configures exporters that render messages
type Option func(*options)

type options struct {
	pipeline *render.Pipeline
	applied  internal.Applied
}

// WithPipeline sets the rendering pipeline used by the HTML format
func WithPipeline(p *render.Pipeline) Option {
	return func(o *options) { o.pipeline = p }
}

// WithSettings applies display settings to the HTML format
func WithSettings(a internal.Applied) Option {
	return func(o *options) { o.applied = a }
}

// Formats lists the supported format names
func Formats() []string {
	return []string{"json", "jsonl", "md", "yaml", "html"}
}

// NewExporter creates a new exporter based on format
func NewExporter(format string, opts ...Option) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "html":
		o := options{}
		for _, opt := range opts {
			opt(&o)
		}
		return NewHTMLExporter(o.pipeline, o.applied), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats(), ", "))
	}
}

var nonWord = regexp.MustCompile(`[^\w-]+`)

// FileName derives the export file name from the session name
func FileName(session *internal.Session, ext string) string {
	base := "chat"
	if session != nil && session.Name != "" {
		base = nonWord.ReplaceAllString(session.Name, "_")
	}
	return base + "." + ext
}
