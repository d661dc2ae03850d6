package internal

import (
	"fmt"
	"strings"
)

// FlattenParts renders structured content as display text.
// Text parts are joined by blank lines, image parts become Markdown images,
// and parts of any other type are omitted.
func FlattenParts(parts []Part) string {
	var textParts []string
	for _, p := range parts {
		switch p.Type {
		case PartText:
			if p.Text != "" {
				textParts = append(textParts, p.Text)
			}
		case PartImageURL:
			if p.ImageURL != nil && p.ImageURL.URL != "" {
				textParts = append(textParts, fmt.Sprintf("![image](%s)", p.ImageURL.URL))
			}
		default:
			LogDebug("Skipping content part of unknown type %q", p.Type)
		}
	}
	return strings.Join(textParts, "\n\n")
}

// ExtractText returns the display text of any content shape
func ExtractText(c Content) string {
	if c.IsStructured() {
		return FlattenParts(c.Parts)
	}
	return c.Text
}
