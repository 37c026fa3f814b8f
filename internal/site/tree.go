package site

import (
	"fmt"
	"html"
	"path"
	"sort"
	"strings"
)

// NavNode is one entry of the sidebar navigation.
type NavNode struct {
	Name     string
	Title    string // display name; page title for files, formatted name for directories
	Path     string // output path relative to the site root, slash separated
	IsDir    bool
	Children []*NavNode
}

// BuildNav constructs the navigation tree from output page paths.
// titles maps an output path to its page title.
func BuildNav(paths []string, titles map[string]string) *NavNode {
	root := &NavNode{Name: "site", IsDir: true}

	for _, p := range paths {
		parts := strings.Split(p, "/")
		current := root
		for i, part := range parts {
			isLast := i == len(parts)-1
			child := current.child(part, !isLast)
			if child == nil {
				child = &NavNode{Name: part, IsDir: !isLast}
				if isLast {
					child.Path = p
					child.Title = titles[p]
				} else {
					child.Path = strings.Join(parts[:i+1], "/")
					child.Title = formatDirName(part)
				}
				current.Children = append(current.Children, child)
			}
			current = child
		}
	}

	root.sort()
	return root
}

func (n *NavNode) child(name string, isDir bool) *NavNode {
	for _, c := range n.Children {
		if c.Name == name && c.IsDir == isDir {
			return c
		}
	}
	return nil
}

// sort orders children directories first, then files, alphabetically.
func (n *NavNode) sort() {
	sort.Slice(n.Children, func(i, j int) bool {
		if n.Children[i].IsDir != n.Children[j].IsDir {
			return n.Children[i].IsDir
		}
		return n.Children[i].Name < n.Children[j].Name
	})
	for _, c := range n.Children {
		if c.IsDir {
			c.sort()
		}
	}
}

// HTML renders the tree as nested lists. The page at activePath is marked
// active and its ancestor directories expanded. basePath prefixes every link.
func (n *NavNode) HTML(activePath, basePath string) string {
	var b strings.Builder
	homeActive := ""
	if activePath == "index.html" {
		homeActive = ` class="active"`
	}
	fmt.Fprintf(&b, `<ul><li class="file home-link"><a href="%sindex.html"%s>Home</a></li></ul>`+"\n", basePath, homeActive)

	n.renderChildren(&b, activePath, basePath, ancestorsOf(activePath))
	return b.String()
}

// ancestorsOf returns the directory paths above p.
// For "guide/setup/install.html" it returns {"guide", "guide/setup"}.
func ancestorsOf(p string) map[string]bool {
	ancestors := make(map[string]bool)
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		ancestors[dir] = true
	}
	return ancestors
}

func (n *NavNode) renderChildren(b *strings.Builder, activePath, basePath string, expanded map[string]bool) {
	if len(n.Children) == 0 {
		return
	}
	b.WriteString("<ul>\n")
	for _, c := range n.Children {
		label := c.Title
		if label == "" {
			label = strings.TrimSuffix(c.Name, ".html")
		}
		if c.IsDir {
			state := ""
			if expanded[c.Path] {
				state = "expanded"
			}
			fmt.Fprintf(b, `<li class="dir %s"><span class="dir-toggle">%s</span>`+"\n", state, html.EscapeString(label))
			c.renderChildren(b, activePath, basePath, expanded)
			b.WriteString("</li>\n")
			continue
		}
		if c.Path == "index.html" {
			continue
		}
		active := ""
		if c.Path == activePath {
			active = ` class="active"`
		}
		fmt.Fprintf(b, `<li class="file"><a href="%s%s"%s>%s</a></li>`+"\n", basePath, c.Path, active, html.EscapeString(label))
	}
	b.WriteString("</ul>\n")
}

// formatDirName turns a directory slug into a display name.
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
