package export

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/render"
)

// HTMLExporter writes a standalone page with every message rendered through
// the pipeline, highlight styles inlined, and working copy buttons
type HTMLExporter struct {
	pipeline *render.Pipeline
	applied  internal.Applied
}

// NewHTMLExporter creates the HTML exporter. A nil pipeline uses the built-in renderer.
func NewHTMLExporter(p *render.Pipeline, applied internal.Applied) *HTMLExporter {
	if p == nil {
		p = render.New()
	}
	if applied.Theme == "" {
		applied.Theme = internal.ThemeLight
	}
	return &HTMLExporter{pipeline: p, applied: applied}
}

type htmlMessage struct {
	Role  string
	Label string
	Body  template.HTML
}

type htmlPage struct {
	Title      string
	Theme      string
	Model      string
	Updated    string
	Vars       template.CSS
	Highlight  template.CSS
	Messages   []htmlMessage
	CopyLabel  string
	Copied     string
	Failed     string
	FeedbackMS int64
}

// Export exports a session to a standalone HTML page
func (e *HTMLExporter) Export(session *internal.Session, w io.Writer) error {
	page := htmlPage{
		Title:      session.Name,
		Theme:      e.applied.Theme,
		Model:      session.Model,
		Vars:       cssVars(e.applied.Vars),
		CopyLabel:  render.CopyLabel,
		Copied:     render.CopiedLabel,
		Failed:     render.FailedLabel,
		FeedbackMS: render.CopyFeedbackInterval.Milliseconds(),
	}
	if page.Title == "" {
		page.Title = internal.DefaultSessionName
	}
	if session.UpdatedAt > 0 {
		page.Updated = session.GetUpdatedAt().UTC().Format(time.RFC1123)
	}
	if h := e.pipeline.Highlighter(); h != nil {
		css, err := h.CSS()
		if err != nil {
			return &internal.ExportError{Format: "html", Err: err}
		}
		page.Highlight = template.CSS(css)
	}

	for _, msg := range session.Messages {
		display := internal.StripReasoning(internal.ExtractText(msg.Content))
		asMarkdown := msg.Role == internal.RoleAssistant || (msg.Role == internal.RoleUser && e.applied.UserMarkdown)
		out := e.pipeline.Render(display, asMarkdown)
		page.Messages = append(page.Messages, htmlMessage{
			Role:  string(msg.Role),
			Label: roleTitle(msg.Role),
			// Pipeline output is sanitized
			Body: template.HTML(out.HTML),
		})
	}

	if err := pageTemplate.Execute(w, page); err != nil {
		return &internal.ExportError{Format: "html", Err: err}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}

func cssVars(vars map[string]string) template.CSS {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	css := ""
	for _, k := range keys {
		css += fmt.Sprintf("%s: %s; ", k, vars[k])
	}
	return template.CSS(css)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { {{.Vars}} }
body { font-family: system-ui, sans-serif; margin: 0; background: #f7f7f8; color: #1f2328; }
[data-theme="dark"] body { background: #0d1117; color: #e6edf3; }
header { padding: 1rem 1.5rem; border-bottom: 1px solid #d0d7de; }
header small { opacity: .7; }
main { max-width: 960px; margin: 0 auto; padding: 1rem; }
.msg { display: flex; margin: .75rem 0; }
.msg.user { justify-content: flex-end; }
.bubble { max-width: var(--msg-max, 100%); padding: .75rem 1rem; border-radius: 12px; background: #fff; box-shadow: 0 1px 2px rgba(0,0,0,.08); overflow-wrap: anywhere; }
[data-theme="dark"] .bubble { background: #161b22; }
.msg.user .bubble { background: #dbeafe; }
[data-theme="dark"] .msg.user .bubble { background: #1e3a5f; }
.role { font-size: .75rem; font-weight: 600; opacity: .7; margin-bottom: .25rem; }
.bubble img { max-width: 100%; }
pre { position: relative; overflow-x: auto; padding: .75rem; border-radius: 8px; background: #f6f8fa; }
[data-theme="dark"] pre { background: #010409; }
.copy-btn { position: absolute; top: .4rem; right: .4rem; font-size: .75rem; cursor: pointer; }
.math.display { display: block; text-align: center; margin: .5rem 0; }
{{.Highlight}}
</style>
</head>
<body>
<header>
<strong>{{.Title}}</strong>
{{if .Model}}<small> · {{.Model}}</small>{{end}}
{{if .Updated}}<small> · {{.Updated}}</small>{{end}}
</header>
<main>
{{range .Messages}}<div class="msg {{.Role}}"><div class="bubble"><div class="role">{{.Label}}</div>{{.Body}}</div></div>
{{end}}</main>
<script>
document.querySelectorAll("pre").forEach(function (pre) {
  var btn = pre.querySelector("button.copy-btn");
  if (!btn) { return; }
  btn.addEventListener("click", function () {
    var code = pre.querySelector("code");
    var text = code ? code.innerText : pre.innerText;
    var done = function (label) {
      btn.textContent = label;
      setTimeout(function () { btn.textContent = {{.CopyLabel}}; }, {{.FeedbackMS}});
    };
    navigator.clipboard.writeText(text).then(
      function () { done({{.Copied}}); },
      function () { done({{.Failed}}); }
    );
  });
});
</script>
</body>
</html>
`))
