package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Bluemonday sanitizes with the user-generated-content policy, extended so
// embedded images, code language classes, and highlight spans survive
type Bluemonday struct {
	policy *bluemonday.Policy
}

// NewBluemonday creates the bluemonday sanitizer
func NewBluemonday() *Bluemonday {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#.-]+$`)).OnElements("code")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w -]+$`)).OnElements("span", "pre", "div")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.SkipElementsContent("script", "style", "iframe", "object", "embed", "noscript")
	return &Bluemonday{policy: p}
}

func (b *Bluemonday) Name() string { return "bluemonday" }

func (b *Bluemonday) Sanitize(dirty string) (string, error) {
	return b.policy.Sanitize(dirty), nil
}
