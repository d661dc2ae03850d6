package export

import (
	"io"
	"time"

	"github.com/iksnae/xerochat/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports sessions in YAML format with message text flattened
// and image references listed separately
type YAMLExporter struct{}

type yamlSession struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Model     string        `yaml:"model,omitempty"`
	Preview   string        `yaml:"preview,omitempty"`
	UpdatedAt string        `yaml:"updated_at"`
	Messages  []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	Role   string   `yaml:"role"`
	Text   string   `yaml:"text"`
	Images []string `yaml:"images,omitempty"`
}

// Export exports a session to YAML format
func (e *YAMLExporter) Export(session *internal.Session, w io.Writer) error {
	doc := yamlSession{
		ID:        session.ID,
		Name:      session.Name,
		Model:     session.Model,
		Preview:   session.Preview,
		UpdatedAt: session.GetUpdatedAt().UTC().Format(time.RFC3339),
		Messages:  make([]yamlMessage, 0, len(session.Messages)),
	}
	for _, msg := range session.Messages {
		ym := yamlMessage{Role: string(msg.Role), Text: msg.Content.JoinedText()}
		for _, p := range msg.Content.Parts {
			if p.ImageURL != nil {
				ym.Images = append(ym.Images, p.ImageURL.URL)
			}
		}
		doc.Messages = append(doc.Messages, ym)
	}

	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
