package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Highlighter adds chroma class-based highlighting to code blocks that declare a language
type Highlighter struct {
	style     string
	formatter *chromahtml.Formatter
}

// NewHighlighter creates a highlighter; style names the chroma style used for CSS
func NewHighlighter(style string) *Highlighter {
	if style == "" {
		style = "github"
	}
	return &Highlighter{
		style: style,
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Style returns the chroma style name
func (h *Highlighter) Style() string {
	return h.style
}

// CSS returns the stylesheet for the highlight classes
func (h *Highlighter) CSS() (string, error) {
	var b strings.Builder
	if err := h.formatter.WriteCSS(&b, h.chromaStyle()); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (h *Highlighter) chromaStyle() *chroma.Style {
	style := styles.Get(h.style)
	if style == nil {
		style = styles.Fallback
	}
	return style
}

// Highlight rewrites <pre><code class="language-X"> blocks in sanitized HTML.
// Blocks without a known language are left unchanged.
func (h *Highlighter) Highlight(safe string) (string, error) {
	root, err := parseFragment(safe)
	if err != nil {
		return "", err
	}
	var firstErr error
	forEachElement(root, atom.Pre, func(pre *html.Node) {
		code := firstChildElement(pre, atom.Code)
		if code == nil {
			return
		}
		lang := codeLanguage(code)
		if lang == "" {
			return
		}
		lexer := lexers.Get(lang)
		if lexer == nil {
			return
		}
		highlighted, err := h.highlight(chroma.Coalesce(lexer), textContent(code, nil))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		nodes, err := html.ParseFragment(strings.NewReader(highlighted), code)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		for c := code.FirstChild; c != nil; c = code.FirstChild {
			code.RemoveChild(c)
		}
		for _, n := range nodes {
			code.AppendChild(n)
		}
		addClass(pre, "chroma")
	})
	if firstErr != nil {
		return "", firstErr
	}
	return renderChildren(root)
}

func (h *Highlighter) highlight(lexer chroma.Lexer, code string) (string, error) {
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.chromaStyle(), it); err != nil {
		return "", err
	}
	return b.String(), nil
}

// codeLanguage reads the language from a language-X class
func codeLanguage(code *html.Node) string {
	for _, c := range strings.Fields(attr(code, "class")) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}

func firstChildElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}
