package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Goldmark is the Markdown engine: CommonMark plus GitHub extensions, no hard
// line breaks. Raw HTML is passed through because sanitizing happens next.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark creates the goldmark engine
func NewGoldmark() *Goldmark {
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)}
}

func (g *Goldmark) Name() string { return "goldmark" }

func (g *Goldmark) ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
