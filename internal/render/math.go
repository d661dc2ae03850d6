package render

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Math span classes
const (
	MathDisplayClass = "math display"
	MathInlineClass  = "math inline"
)

var mathDelims = regexp.MustCompile(`(?s)\$\$(.+?)\$\$|\\\[(.+?)\\\]|\\\((.+?)\\\)|\$([^$\n]+?)\$`)

// DelimiterTypesetter marks TeX regions so a stylesheet or client script can
// typeset them. Display math ($$…$$, \[…\]) and inline math ($…$, \(…\)) are
// wrapped in spans; text inside pre, code, and script elements is left alone.
type DelimiterTypesetter struct{}

func (DelimiterTypesetter) Typeset(htmlStr string) (string, error) {
	if !strings.ContainsAny(htmlStr, `$\`) {
		return htmlStr, nil
	}
	root, err := parseFragment(htmlStr)
	if err != nil {
		return "", err
	}
	typesetChildren(root)
	return renderChildren(root)
}

func typesetChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			splitMath(n, c)
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Pre, atom.Code, atom.Script, atom.Style, atom.Textarea:
			default:
				if !hasClass(c, "math") {
					typesetChildren(c)
				}
			}
		}
		c = next
	}
}

// splitMath replaces text node t with text and math span nodes
func splitMath(parent, t *html.Node) {
	matches := mathDelims.FindAllStringSubmatchIndex(t.Data, -1)
	if len(matches) == 0 {
		return
	}
	text := t.Data
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[pos:m[0]]}, t)
		}
		class := MathInlineClass
		var tex string
		switch {
		case m[2] >= 0:
			class, tex = MathDisplayClass, text[m[2]:m[3]]
		case m[4] >= 0:
			class, tex = MathDisplayClass, text[m[4]:m[5]]
		case m[6] >= 0:
			tex = text[m[6]:m[7]]
		default:
			tex = text[m[8]:m[9]]
		}
		span := &html.Node{
			Type:     html.ElementNode,
			Data:     "span",
			DataAtom: atom.Span,
			Attr:     []html.Attribute{{Key: "class", Val: class}},
		}
		span.AppendChild(&html.Node{Type: html.TextNode, Data: strings.TrimSpace(tex)})
		parent.InsertBefore(span, t)
		pos = m[1]
	}
	if pos < len(text) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[pos:]}, t)
	}
	parent.RemoveChild(t)
}
