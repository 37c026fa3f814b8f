package site

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PageData is passed to the skeleton template for each page.
// Custom skeletons usually only need Title and Content.
type PageData struct {
	Title       string
	SiteTitle   string
	Content     template.HTML
	NavHTML     template.HTML
	BasePath    string // prefix back to the site root, e.g. "../" or "/"
	CopyClass   string
	CopyMessage string
	Version     string // cache-busting token for the built-in assets
}

// legacyScript is the client-side annotator of older skeletons. Content is
// already annotated on the server, so loading it doubles every control.
const legacyScript = "copy-button-code-block.js"

// Skeleton wraps rendered content in a full HTML page.
type Skeleton struct {
	tmpl     *template.Template
	warnings []string
}

// DefaultSkeleton returns the built-in page shell.
func DefaultSkeleton() *Skeleton {
	return &Skeleton{tmpl: template.Must(template.New("page").Parse(pageTemplate))}
}

// LoadSkeleton parses the template at path. An empty path yields the default skeleton.
//
// A custom skeleton must load the built-in script so the controls respond to
// clicks, for example:
//
//	<script src="{{.BasePath}}_codecopy/copy-button.js?v={{.Version}}"
//	        data-copy-class="{{.CopyClass}}" data-copy-message="{{.CopyMessage}}"></script>
//
// It must not load a client-side annotator of its own. Both problems are
// reported by Warnings.
func LoadSkeleton(path string) (*Skeleton, error) {
	if path == "" {
		return DefaultSkeleton(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skeleton: %w", err)
	}
	tmpl, err := template.New(filepath.Base(path)).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing skeleton %s: %w", path, err)
	}
	return &Skeleton{tmpl: tmpl, warnings: skeletonWarnings(path, string(data))}, nil
}

// Warnings lists problems with how the skeleton loads scripts.
func (s *Skeleton) Warnings() []string { return s.warnings }

func skeletonWarnings(path, text string) []string {
	var warnings []string
	if !strings.Contains(text, ScriptName) {
		warnings = append(warnings, fmt.Sprintf("skeleton %s does not load %s/%s: copy controls will not respond to clicks", path, AssetDir, ScriptName))
	}
	if strings.Contains(text, legacyScript) {
		warnings = append(warnings, fmt.Sprintf("skeleton %s loads %s: every code block will get a second control", path, legacyScript))
	}
	return warnings
}

// Execute renders the page into w.
func (s *Skeleton) Execute(w io.Writer, data PageData) error {
	return s.tmpl.Execute(w, data)
}

// pageTemplate is the built-in html/template for each page.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}{{if .SiteTitle}} — {{.SiteTitle}}{{end}}</title>
  <link rel="stylesheet" href="{{.BasePath}}_codecopy/style.css?v={{.Version}}">
  <script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
</head>
<body>
  {{if .NavHTML}}<nav class="sidebar" id="sidebar">
    <h2 class="project-title">{{.SiteTitle}}</h2>
    {{.NavHTML}}
  </nav>{{end}}
  <main class="content">
    <article class="page-content" id="content">
      {{.Content}}
    </article>
  </main>
  <script>if (window.mermaid) { mermaid.initialize({startOnLoad: true}); }</script>
  <script src="{{.BasePath}}_codecopy/copy-button.js?v={{.Version}}" data-copy-class="{{.CopyClass}}" data-copy-message="{{.CopyMessage}}"></script>
</body>
</html>`
