package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/codecopy/internal/config"
	"github.com/ziadkadry99/codecopy/internal/progress"
)

// Builder renders every page of the site to static HTML files.
type Builder struct {
	ContentDir  string
	ContentGlob string
	Pages       []config.Page
	OutputDir   string
	SiteTitle   string
	Version     string
	Renderer    *Renderer
	Reporter    progress.Reporter
}

// sourcePage is one page scheduled for rendering.
type sourcePage struct {
	src      string // content file on disk
	out      string // output path relative to OutputDir, slash separated
	title    string
	skeleton string
}

// Build renders all pages and writes the built-in assets. Returns the number
// of pages written.
func (b *Builder) Build() (int, error) {
	pages, err := b.collect()
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("no pages found (configure pages or add files matching %q under %s)", b.ContentGlob, b.ContentDir)
	}

	outPaths := make([]string, 0, len(pages))
	titles := make(map[string]string, len(pages))
	for _, p := range pages {
		outPaths = append(outPaths, p.out)
		titles[p.out] = p.title
	}
	nav := BuildNav(outPaths, titles)

	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return 0, err
	}
	if err := WriteAssets(b.OutputDir); err != nil {
		return 0, fmt.Errorf("writing assets: %w", err)
	}

	reporter := b.Reporter
	if reporter == nil {
		reporter = progress.Discard{}
	}
	renderer := b.Renderer
	if renderer == nil {
		renderer = NewRenderer(nil, false)
	}

	skeletons := make(map[string]*Skeleton)
	reporter.Start(len(pages))
	for i, p := range pages {
		skel, ok := skeletons[p.skeleton]
		if !ok {
			skel, err = LoadSkeleton(p.skeleton)
			if err != nil {
				return 0, err
			}
			for _, w := range skel.Warnings() {
				log.Printf("warning: %s", w)
			}
			skeletons[p.skeleton] = skel
		}
		if err := b.renderPage(renderer, skel, nav, p); err != nil {
			return 0, fmt.Errorf("rendering %s: %w", p.src, err)
		}
		reporter.Update(i+1, p.out)
	}
	reporter.Finish()

	return len(pages), nil
}

// collect returns configured pages first, then files matched by the content
// glob. A glob match never replaces a configured page with the same output path.
func (b *Builder) collect() ([]sourcePage, error) {
	var pages []sourcePage
	taken := make(map[string]bool)

	for _, p := range b.Pages {
		out := URLToFile(p.URL)
		if taken[out] {
			continue
		}
		title := p.Title
		if title == "" {
			title = TitleOf(p.ContentPath)
		}
		pages = append(pages, sourcePage{src: p.ContentPath, out: out, title: title, skeleton: p.SkeletonPath})
		taken[out] = true
	}

	if b.ContentDir == "" || b.ContentGlob == "" {
		return pages, nil
	}
	if _, err := os.Stat(b.ContentDir); os.IsNotExist(err) {
		return pages, nil
	}

	fsys := os.DirFS(b.ContentDir)
	matches, err := doublestar.Glob(fsys, b.ContentGlob)
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", b.ContentGlob, err)
	}
	sort.Strings(matches)

	for _, rel := range matches {
		if inExcludedDir(rel) {
			continue
		}
		info, err := fs.Stat(fsys, rel)
		if err != nil || info.IsDir() || !isPageSource(rel) {
			continue
		}
		out := mdPathToHTML(rel)
		if taken[out] {
			continue
		}
		src := filepath.Join(b.ContentDir, filepath.FromSlash(rel))
		pages = append(pages, sourcePage{src: src, out: out, title: TitleOf(src)})
		taken[out] = true
	}
	return pages, nil
}

func (b *Builder) renderPage(r *Renderer, skel *Skeleton, nav *NavNode, p sourcePage) error {
	content, _, err := r.RenderFile(p.src)
	if err != nil {
		return err
	}

	basePath := strings.Repeat("../", strings.Count(p.out, "/"))
	data := PageData{
		Title:       p.title,
		SiteTitle:   b.SiteTitle,
		Content:     template.HTML(content),
		NavHTML:     template.HTML(nav.HTML(p.out, basePath)),
		BasePath:    basePath,
		CopyClass:   r.Annotator().Class(),
		CopyMessage: r.Annotator().Message(),
		Version:     b.Version,
	}

	var buf bytes.Buffer
	if err := skel.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing skeleton: %w", err)
	}

	outPath := filepath.Join(b.OutputDir, filepath.FromSlash(p.out))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, buf.Bytes(), 0o644)
}

// URLToFile maps a page URL to its output file: "/" is index.html and
// "/guide/setup" is guide/setup/index.html. URLs ending in .html are kept.
func URLToFile(u string) string {
	p := strings.Trim(path.Clean("/"+u), "/")
	if p == "" {
		return "index.html"
	}
	if path.Ext(p) == ".html" {
		return p
	}
	return p + "/index.html"
}

// ExcludedDirs are directory names never searched for page sources, at any depth.
var ExcludedDirs = []string{
	".git",
	"node_modules",
	"vendor",
	"dist",
	"build",
	".venv",
	".idea",
	".vscode",
	AssetDir,
}

func inExcludedDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		for _, excl := range ExcludedDirs {
			if strings.EqualFold(dir, excl) {
				return true
			}
		}
	}
	return false
}

func isPageSource(name string) bool {
	if isMarkdown(name) {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// TitleOf reads the page title from the file's first heading, falling back
// to its name.
func TitleOf(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return extractTitle("", file)
	}
	return extractTitle(string(data), file)
}
