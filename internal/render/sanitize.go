package render

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// forbiddenElements are removed together with everything inside them
var forbiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"noscript": true,
}

var scriptURL = regexp.MustCompile(`(^|:)(javascript|vbscript):`)

// BuiltinSanitizer is the fallback sanitizer. It parses the HTML, drops
// forbidden elements and comments, and strips event-handler attributes and
// attributes whose value is a script URL. Everything else passes through.
type BuiltinSanitizer struct{}

func (BuiltinSanitizer) Name() string { return "builtin" }

func (BuiltinSanitizer) Sanitize(dirty string) (string, error) {
	root, err := parseFragment(dirty)
	if err != nil {
		return "", err
	}
	sanitizeChildren(root)
	return renderChildren(root)
}

func sanitizeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode:
			n.RemoveChild(c)
		case html.ElementNode:
			if forbiddenElements[strings.ToLower(c.Data)] {
				n.RemoveChild(c)
				break
			}
			c.Attr = safeAttrs(c.Attr)
			sanitizeChildren(c)
		}
		c = next
	}
}

func safeAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if isScriptURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// isScriptURL reports whether v is a script URL once whitespace and control
// characters, which browsers ignore inside URL schemes, are removed
func isScriptURL(v string) bool {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, v)
	return scriptURL.MatchString(compact)
}

// parseFragment parses s as the contents of a <body> and returns a detached
// container holding the parsed nodes
func parseFragment(s string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func renderChildren(root *html.Node) (string, error) {
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// textContent concatenates the text beneath n, skipping elements for which skip returns true
func textContent(n *html.Node, skip func(*html.Node) bool) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				if skip == nil || !skip(c) {
					walk(c)
				}
			}
		}
	}
	walk(n)
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}
