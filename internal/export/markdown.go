package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/xerochat/internal"
)

// MarkdownExporter exports sessions in Markdown format. Assistant replies are
// already Markdown and are written as is; user text is escaped.
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.Session, w io.Writer) error {
	name := session.Name
	if name == "" {
		name = internal.DefaultSessionName
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", name)

	if session.Model != "" {
		_, _ = fmt.Fprintf(w, "**Model:** %s  \n", session.Model)
	}
	if session.UpdatedAt > 0 {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", session.GetCreatedAt().UTC().Format(time.RFC3339))
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", session.GetUpdatedAt().UTC().Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		content := internal.StripReasoning(internal.ExtractText(msg.Content))
		if msg.Role == internal.RoleUser {
			content = escapeMarkdown(content)
		}

		_, _ = fmt.Fprintf(w, "### %s\n\n%s\n\n", roleTitle(msg.Role), content)

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func roleTitle(role internal.Role) string {
	switch role {
	case internal.RoleUser:
		return "You"
	case internal.RoleAssistant:
		return "Assistant"
	}
	return string(role)
}

// escapeMarkdown escapes emphasis markers outside code blocks and leaves
// image references intact
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock || strings.HasPrefix(line, "![image](") {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
