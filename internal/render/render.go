// Package render turns message text into sanitized HTML.
//
// A Pipeline converts Markdown with a Markdown engine, cleans the result with a
// Sanitizer, and then enhances it: code highlighting, copy buttons, and math
// markers. Each stage degrades independently; when an engine fails the built-in
// fallback takes over, and when everything fails the text is shown escaped.
package render

import (
	"fmt"
	"strings"

	"github.com/iksnae/xerochat/internal"
	"golang.org/x/net/html"
)

// Markdown converts Markdown source into raw, unsanitized HTML
type Markdown interface {
	Name() string
	ToHTML(src string) (string, error)
}

// Sanitizer removes active content from HTML
type Sanitizer interface {
	Name() string
	Sanitize(dirty string) (string, error)
}

// Typesetter post-processes sanitized HTML for math display.
// Its failures never affect the rendered message.
type Typesetter interface {
	Typeset(htmlStr string) (string, error)
}

// Output is a rendered message
type Output struct {
	Source   string // text that was rendered
	HTML     string // sanitized and enhanced HTML
	Markdown bool   // false when Source was rendered as plain text
}

// Pipeline renders message text to safe HTML
type Pipeline struct {
	markdown    Markdown
	sanitizer   Sanitizer
	typesetter  Typesetter
	highlighter *Highlighter
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMarkdown selects the Markdown engine
func WithMarkdown(m Markdown) Option {
	return func(p *Pipeline) { p.markdown = m }
}

// WithSanitizer selects the sanitizer
func WithSanitizer(s Sanitizer) Option {
	return func(p *Pipeline) { p.sanitizer = s }
}

// WithTypesetter enables math typesetting
func WithTypesetter(t Typesetter) Option {
	return func(p *Pipeline) { p.typesetter = t }
}

// WithHighlighter enables code highlighting
func WithHighlighter(h *Highlighter) Option {
	return func(p *Pipeline) { p.highlighter = h }
}

// New assembles a pipeline. Without options it uses the built-in Markdown
// converter and sanitizer and no enhancement beyond copy buttons.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		markdown:  Builtin{},
		sanitizer: BuiltinSanitizer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Highlighter returns the configured highlighter, or nil
func (p *Pipeline) Highlighter() *Highlighter {
	return p.highlighter
}

// Describe names the capabilities in use
func (p *Pipeline) Describe() string {
	parts := []string{"markdown=" + p.markdown.Name(), "sanitizer=" + p.sanitizer.Name()}
	if p.highlighter != nil {
		parts = append(parts, "highlight="+p.highlighter.Style())
	}
	if p.typesetter != nil {
		parts = append(parts, "math=on")
	}
	return strings.Join(parts, " ")
}

// Render renders text as Markdown, or as escaped plain text when asMarkdown is false
func (p *Pipeline) Render(text string, asMarkdown bool) Output {
	if !asMarkdown {
		return Output{Source: text, HTML: PlainHTML(text)}
	}
	return Output{Source: text, HTML: p.Enhance(p.SafeHTML(text)), Markdown: true}
}

// SafeHTML converts Markdown to sanitized HTML. It never returns unsanitized markup.
func (p *Pipeline) SafeHTML(md string) string {
	raw := p.convert(md)
	clean, err := p.sanitize(raw)
	if err != nil {
		internal.LogDebug("Sanitizers failed, rendering escaped text: %v", err)
		return PlainHTML(md)
	}
	return clean
}

// Enhance applies highlighting, copy buttons, and math markers to sanitized HTML.
// A failing step is skipped.
func (p *Pipeline) Enhance(safe string) string {
	out := safe
	if p.highlighter != nil {
		if h, err := guard(func() (string, error) { return p.highlighter.Highlight(out) }); err == nil {
			out = h
		} else {
			internal.LogDebug("Highlighting skipped: %v", err)
		}
	}
	if c, err := guard(func() (string, error) { return AddCopyButtons(out) }); err == nil {
		out = c
	} else {
		internal.LogDebug("Copy buttons skipped: %v", err)
	}
	if p.typesetter != nil {
		if m, err := guard(func() (string, error) { return p.typesetter.Typeset(out) }); err == nil {
			out = m
		}
	}
	return out
}

func (p *Pipeline) convert(md string) string {
	out, err := guard(func() (string, error) { return p.markdown.ToHTML(md) })
	if err == nil {
		return out
	}
	internal.LogDebug("Markdown engine %s failed, using fallback: %v", p.markdown.Name(), err)
	if _, isBuiltin := p.markdown.(Builtin); !isBuiltin {
		if out, err = guard(func() (string, error) { return Builtin{}.ToHTML(md) }); err == nil {
			return out
		}
	}
	return PlainHTML(md)
}

func (p *Pipeline) sanitize(raw string) (string, error) {
	out, err := guard(func() (string, error) { return p.sanitizer.Sanitize(raw) })
	if err == nil {
		return out, nil
	}
	internal.LogDebug("Sanitizer %s failed, using fallback: %v", p.sanitizer.Name(), err)
	if _, isBuiltin := p.sanitizer.(BuiltinSanitizer); isBuiltin {
		return "", err
	}
	return guard(func() (string, error) { return BuiltinSanitizer{}.Sanitize(raw) })
}

// PlainHTML escapes text into a single paragraph, keeping line breaks
func PlainHTML(text string) string {
	escaped := html.EscapeString(text)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br/>") + "</p>"
}

// guard runs fn, converting a panic into an error
func guard(fn func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
