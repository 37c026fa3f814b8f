package site

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/codecopy/internal/annotate"
)

// Renderer turns page content into annotated HTML fragments.
// It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	annotator *annotate.Annotator
	policy    *bluemonday.Policy // nil when sanitising is off
}

// NewRenderer creates a Renderer. With sanitize set, rendered HTML is passed
// through a bluemonday UGC policy before the copy controls are added.
func NewRenderer(a *annotate.Annotator, sanitize bool) *Renderer {
	if a == nil {
		a = annotate.New()
	}
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
		annotator: a,
	}
	if sanitize {
		r.policy = sanitizePolicy()
	}
	return r
}

// Annotator returns the annotator used for copy controls.
func (r *Renderer) Annotator() *annotate.Annotator { return r.annotator }

// RenderFile reads and renders the file at path.
func (r *Renderer) RenderFile(path string) ([]byte, []annotate.Block, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return r.Render(src, filepath.Base(path))
}

// Render converts src to an annotated HTML fragment. Markdown is detected by
// the .md/.markdown extension of name; anything else is treated as HTML.
func (r *Renderer) Render(src []byte, name string) ([]byte, []annotate.Block, error) {
	content := src
	if isMarkdown(name) {
		var buf bytes.Buffer
		if err := r.md.Convert(src, &buf); err != nil {
			return nil, nil, fmt.Errorf("converting markdown: %w", err)
		}
		content = buf.Bytes()
	}

	htmlContent := postProcessMermaid(string(content))
	if r.policy != nil {
		htmlContent = r.policy.Sanitize(htmlContent)
	}

	doc, err := annotate.Parse([]byte(htmlContent), true)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	rewriteMDLinks(doc)
	blocks := r.annotator.Annotate(doc)

	out, err := doc.Html()
	if err != nil {
		return nil, nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return []byte(out), blocks, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// sanitizePolicy keeps what highlighted code blocks and mermaid diagrams need.
func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowAttrs("tabindex").OnElements("pre")
	p.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration", "display").Globally()
	return p
}

// extractTitle pulls the first # heading from markdown content, or falls back to the filename.
func extractTitle(content, relPath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// postProcessMermaid converts <pre><code class="language-mermaid">...</code></pre>
// blocks into <div class="mermaid">...</div> for Mermaid.js rendering. Diagrams
// are not code blocks and get no copy control.
func postProcessMermaid(html string) string {
	const openTag = `<pre><code class="language-mermaid">`
	const closeTag = `</code></pre>`

	for {
		idx := strings.Index(html, openTag)
		if idx == -1 {
			break
		}
		endIdx := strings.Index(html[idx:], closeTag)
		if endIdx == -1 {
			break
		}
		endIdx += idx

		mermaidContent := html[idx+len(openTag) : endIdx]
		replacement := `<div class="mermaid">` + mermaidContent + `</div>`
		html = html[:idx] + replacement + html[endIdx+len(closeTag):]
	}

	return html
}

// rewriteMDLinks points relative links to .md pages at their .html output.
// Only href attributes of anchors change; text, including code, is untouched.
func rewriteMDLinks(doc *goquery.Document) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if rewritten, ok := mdLinkToHTML(href); ok {
			a.SetAttr("href", rewritten)
		}
	})
}

func mdLinkToHTML(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" || !isMarkdown(u.Path) {
		return href, false
	}
	u.Path = mdPathToHTML(u.Path)
	return u.String(), true
}

// mdPathToHTML converts a markdown path to its HTML equivalent.
func mdPathToHTML(p string) string {
	ext := filepath.Ext(p)
	if isMarkdown(p) {
		return strings.TrimSuffix(p, ext) + ".html"
	}
	return p
}
