package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CopyButtonClass marks the copy control attached to code blocks
const CopyButtonClass = "copy-btn"

// AddCopyButtons appends a copy button to every <pre> that does not already
// have one. Applying it twice gives the same result as applying it once.
func AddCopyButtons(safe string) (string, error) {
	root, err := parseFragment(safe)
	if err != nil {
		return "", err
	}
	forEachElement(root, atom.Pre, func(pre *html.Node) {
		if hasCopyButton(pre) {
			return
		}
		btn := &html.Node{
			Type:     html.ElementNode,
			Data:     "button",
			DataAtom: atom.Button,
			Attr: []html.Attribute{
				{Key: "class", Val: CopyButtonClass},
				{Key: "type", Val: "button"},
			},
		}
		btn.AppendChild(&html.Node{Type: html.TextNode, Data: CopyLabel})
		pre.AppendChild(btn)
	})
	return renderChildren(root)
}

func hasCopyButton(pre *html.Node) bool {
	found := false
	forEachElement(pre, atom.Button, func(b *html.Node) {
		if hasClass(b, CopyButtonClass) {
			found = true
		}
	})
	return found
}

// ExtractCodeBlocks returns the text of each <pre> block in rendered HTML,
// without the copy button label
func ExtractCodeBlocks(rendered string) []string {
	root, err := parseFragment(rendered)
	if err != nil {
		return nil
	}
	var blocks []string
	forEachElement(root, atom.Pre, func(pre *html.Node) {
		text := textContent(pre, func(n *html.Node) bool {
			return n.DataAtom == atom.Button && hasClass(n, CopyButtonClass)
		})
		blocks = append(blocks, strings.TrimSuffix(text, "\n"))
	})
	return blocks
}

// forEachElement calls fn for each element of type a beneath n in document order.
// Elements of type a nested inside a match are not visited.
func forEachElement(n *html.Node, a atom.Atom, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == a {
			fn(c)
			continue
		}
		forEachElement(c, a, fn)
	}
}
