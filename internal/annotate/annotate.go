// Package annotate appends a copy control to every code block of a rendered
// page and binds the click action that copies the block's text.
//
// A code block is a code element whose direct parent is a pre element. The
// scan (FindCodeBlocks) is pure; Annotate is the only step that mutates the
// tree. Annotation is not idempotent: each pass appends one more control per
// block.
package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultClass marks copy controls so stylesheets and scripts can find them.
	DefaultClass = "copy-button"
	// DefaultMessage is the confirmation shown after every click.
	DefaultMessage = "text copied"
	// IndexAttr holds the block's position in document order.
	IndexAttr = "data-copy-index"
)

// ErrNoSuchBlock is returned by Lookup for an index outside the page's blocks.
var ErrNoSuchBlock = errors.New("no such code block")

// Block is a code element found inside a pre element.
type Block struct {
	Index    int
	Language string
	Node     *html.Node
}

// Text returns the block's rendered text. Controls are siblings of the code
// element, so their text is never included.
func (b Block) Text() string {
	if b.Node == nil {
		return ""
	}
	return goquery.NewDocumentFromNode(b.Node).Text()
}

// Annotator creates copy controls.
type Annotator struct {
	class   string
	label   string
	message string
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithClass sets the marker class of created controls.
func WithClass(class string) Option {
	return func(a *Annotator) {
		if class != "" {
			a.class = class
		}
	}
}

// WithLabel sets the text placed inside each control. Empty by default.
func WithLabel(label string) Option {
	return func(a *Annotator) { a.label = label }
}

// WithMessage sets the confirmation notice text.
func WithMessage(message string) Option {
	return func(a *Annotator) {
		if message != "" {
			a.message = message
		}
	}
}

// New creates an Annotator with the given options applied over the defaults.
func New(opts ...Option) *Annotator {
	a := &Annotator{class: DefaultClass, message: DefaultMessage}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Class returns the marker class given to controls.
func (a *Annotator) Class() string { return a.class }

// Message returns the confirmation notice text.
func (a *Annotator) Message() string { return a.message }

// IsCodeBlock reports whether n is a code element whose direct parent is a pre element.
func IsCodeBlock(n *html.Node) bool {
	return isElement(n, atom.Code) && isElement(n.Parent, atom.Pre)
}

func isElement(n *html.Node, a atom.Atom) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return n.DataAtom == a || strings.EqualFold(n.Data, a.String())
}

// FindCodeBlocks returns every code block under root in document order.
// It does not modify the tree.
func FindCodeBlocks(root *html.Node) []*html.Node {
	var found []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if IsCodeBlock(n) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return found
}

// Annotate appends one control as the last child of each code block's parent
// and returns the annotated blocks. Only blocks present when the pass starts
// are annotated.
func (a *Annotator) Annotate(doc *goquery.Document) []Block {
	var nodes []*html.Node
	for _, root := range doc.Nodes {
		nodes = append(nodes, FindCodeBlocks(root)...)
	}

	blocks := make([]Block, 0, len(nodes))
	for i, n := range nodes {
		n.Parent.AppendChild(a.newControl(i))
		blocks = append(blocks, Block{Index: i, Language: languageOf(n), Node: n})
	}
	return blocks
}

func (a *Annotator) newControl(index int) *html.Node {
	ctl := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Span.String(),
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: a.class},
			{Key: IndexAttr, Val: strconv.Itoa(index)},
		},
	}
	if a.label != "" {
		ctl.AppendChild(&html.Node{Type: html.TextNode, Data: a.label})
	}
	return ctl
}

// AnnotateHTML parses src, annotates it and renders the result. With fragment
// set, src is parsed as body content and rendered without the html, head and
// body wrappers, which is what HTMX partial responses need.
func (a *Annotator) AnnotateHTML(src []byte, fragment bool) ([]byte, []Block, error) {
	doc, err := Parse(src, fragment)
	if err != nil {
		return nil, nil, err
	}

	blocks := a.Annotate(doc)

	out, err := doc.Html()
	if err != nil {
		return nil, nil, fmt.Errorf("rendering html: %w", err)
	}
	return []byte(out), blocks, nil
}

// Blocks lists the code blocks of src without annotating it.
func Blocks(src []byte) ([]Block, error) {
	doc, err := Parse(src, true)
	if err != nil {
		return nil, err
	}
	var blocks []Block
	for _, root := range doc.Nodes {
		for _, n := range FindCodeBlocks(root) {
			blocks = append(blocks, Block{Index: len(blocks), Language: languageOf(n), Node: n})
		}
	}
	return blocks, nil
}

// Lookup returns the block with the given index.
func Lookup(blocks []Block, index int) (Block, error) {
	for _, b := range blocks {
		if b.Index == index {
			return b, nil
		}
	}
	return Block{}, fmt.Errorf("%w: index %d (page has %d)", ErrNoSuchBlock, index, len(blocks))
}

// Parse reads src as a full document, or with fragment set as body content
// under a bare document node. doc.Html() of a fragment renders no html, head
// or body wrappers.
func Parse(src []byte, fragment bool) (*goquery.Document, error) {
	if !fragment {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		return doc, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: atom.Body.String(), DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// languageOf reads the language from a "language-xxx" class on the code
// element or its pre parent.
func languageOf(code *html.Node) string {
	for _, n := range []*html.Node{code, code.Parent} {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, cls := range strings.Fields(attr.Val) {
				if lang, ok := strings.CutPrefix(cls, "language-"); ok && lang != "" {
					return lang
				}
			}
		}
	}
	return ""
}
