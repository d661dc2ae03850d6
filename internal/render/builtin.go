package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Builtin is the dependency-free Markdown converter used when no engine is
// configured or the engine fails. It covers fenced and inline code, bold,
// italic, ATX headings, images, links, and paragraphs.
type Builtin struct{}

var (
	fencedCode = regexp.MustCompile("(?s)```([\\w+#.-]*)[ \\t]*\\n(.*?)```")
	inlineCode = regexp.MustCompile("`([^`\\n]+)`")
	imageRef   = regexp.MustCompile(`!\[([^\]]*)\]\(((?:https?://|data:image/)[^\s)]+)\)`)
	boldText   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicText = regexp.MustCompile(`\*([^*\n]+)\*`)
	atxHeading = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	linkRef    = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)]+)\)`)
	paraBreak  = regexp.MustCompile(`\n{2,}`)
	blockStart = regexp.MustCompile(`^(<h\d|<pre|<ul|<ol|<blockquote|<table|\x00B)`)
)

func (Builtin) Name() string { return "builtin" }

// ToHTML converts src. Code spans are swapped for placeholders so later
// rules never touch their contents.
func (Builtin) ToHTML(src string) (string, error) {
	src = strings.ReplaceAll(src, "\x00", "")
	src = strings.ReplaceAll(src, "\r\n", "\n")

	var held []string
	hold := func(kind byte, rendered string) string {
		held = append(held, rendered)
		return fmt.Sprintf("\x00%c%d\x00", kind, len(held)-1)
	}

	out := fencedCode.ReplaceAllStringFunc(src, func(m string) string {
		sub := fencedCode.FindStringSubmatch(m)
		lang := sub[1]
		if lang == "" {
			lang = "text"
		}
		code := strings.TrimSuffix(sub[2], "\n")
		return hold('B', fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, html.EscapeString(lang), html.EscapeString(code)))
	})

	out = escapeText(out)

	out = inlineCode.ReplaceAllStringFunc(out, func(m string) string {
		return hold('I', "<code>"+inlineCode.FindStringSubmatch(m)[1]+"</code>")
	})
	out = imageRef.ReplaceAllStringFunc(out, func(m string) string {
		sub := imageRef.FindStringSubmatch(m)
		return hold('I', fmt.Sprintf(`<img src="%s" alt="%s"/>`, sub[2], sub[1]))
	})
	out = boldText.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicText.ReplaceAllString(out, "<em>$1</em>")
	out = atxHeading.ReplaceAllStringFunc(out, func(m string) string {
		sub := atxHeading.FindStringSubmatch(m)
		n := len(sub[1])
		return fmt.Sprintf("<h%d>%s</h%d>", n, sub[2], n)
	})
	out = linkRef.ReplaceAllString(out, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)

	var paras []string
	for _, para := range paraBreak.Split(strings.Trim(out, "\n"), -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if blockStart.MatchString(para) {
			paras = append(paras, para)
			continue
		}
		paras = append(paras, "<p>"+strings.ReplaceAll(para, "\n", "<br/>")+"</p>")
	}
	out = strings.Join(paras, "\n")

	for i := len(held) - 1; i >= 0; i-- {
		for _, kind := range []byte{'B', 'I'} {
			out = strings.Replace(out, fmt.Sprintf("\x00%c%d\x00", kind, i), held[i], 1)
		}
	}
	return out, nil
}

// escapeText escapes HTML metacharacters but leaves placeholders intact
func escapeText(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
