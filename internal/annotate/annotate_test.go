package annotate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/codecopy/internal/clipboard"
	"github.com/ziadkadry99/codecopy/internal/notify"
)

// recordingClipboard captures every write.
type recordingClipboard struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recordingClipboard) WriteText(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recordingClipboard) written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// recordingNotifier captures every notice.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func mustDoc(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func waitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for clipboard write")
		return nil
	}
}

func TestFindCodeBlocks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"none", `<p>no code here</p>`, 0},
		{"inline code ignored", `<p>use <code>go test</code></p>`, 0},
		{"single", `<pre><code>a</code></pre>`, 1},
		{"three", `<pre><code>a</code></pre><div><pre><code>b</code></pre></div><pre><code>c</code></pre>`, 3},
		{"code nested deeper", `<pre><div><code>a</code></div></pre>`, 0},
		{"pre without code", `<pre>plain</pre>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, tt.src)
			got := FindCodeBlocks(doc.Nodes[0])
			if len(got) != tt.want {
				t.Errorf("FindCodeBlocks = %d blocks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFindCodeBlocksDoesNotMutate(t *testing.T) {
	doc := mustDoc(t, `<pre><code>a</code></pre>`)
	before, _ := doc.Html()
	FindCodeBlocks(doc.Nodes[0])
	after, _ := doc.Html()
	if before != after {
		t.Errorf("tree changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestFindCodeBlocksNil(t *testing.T) {
	if got := FindCodeBlocks(nil); len(got) != 0 {
		t.Errorf("FindCodeBlocks(nil) = %d, want 0", len(got))
	}
}

func TestIsCodeBlockHandBuiltNodes(t *testing.T) {
	pre := &html.Node{Type: html.ElementNode, Data: "pre"}
	code := &html.Node{Type: html.ElementNode, Data: "code"}
	pre.AppendChild(code)
	if !IsCodeBlock(code) {
		t.Error("code directly under pre should match")
	}
	if IsCodeBlock(pre) {
		t.Error("pre itself should not match")
	}
}

func TestAnnotateOneControlPerBlockAsLastChild(t *testing.T) {
	doc := mustDoc(t, `
<pre><code>one</code><em>trailing</em></pre>
<section><pre><code>two</code></pre></section>
<pre><code>three</code></pre>`)

	blocks := New().Annotate(doc)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}

	controls := doc.Find("span." + DefaultClass)
	if controls.Length() != 3 {
		t.Fatalf("controls = %d, want 3", controls.Length())
	}

	for i, b := range blocks {
		if b.Index != i {
			t.Errorf("block %d has index %d", i, b.Index)
		}
		last := b.Node.Parent.LastChild
		if last.Data != "span" {
			t.Fatalf("block %d: last child is %q, want span", i, last.Data)
		}
		sel := goquery.NewDocumentFromNode(last).Selection
		if !sel.HasClass(DefaultClass) {
			t.Errorf("block %d: last child lacks class %q", i, DefaultClass)
		}
		if idx, _ := sel.Attr(IndexAttr); idx != strconv.Itoa(i) {
			t.Errorf("block %d: %s = %q", i, IndexAttr, idx)
		}
	}

	// The control comes after the existing trailing element, never before.
	first := blocks[0].Node.Parent
	if first.FirstChild != blocks[0].Node {
		t.Error("code element should remain the first child")
	}
	if first.LastChild.PrevSibling.Data != "em" {
		t.Errorf("control should follow the trailing <em>, got %q", first.LastChild.PrevSibling.Data)
	}
}

func TestAnnotateZeroBlocks(t *testing.T) {
	doc := mustDoc(t, `<h1>Title</h1><p>text</p>`)
	blocks := New().Annotate(doc)
	if len(blocks) != 0 {
		t.Errorf("blocks = %d, want 0", len(blocks))
	}
	if n := doc.Find("." + DefaultClass).Length(); n != 0 {
		t.Errorf("controls = %d, want 0", n)
	}
}

func TestAnnotateTwiceAddsSecondControl(t *testing.T) {
	doc := mustDoc(t, `<pre><code>a</code></pre><pre><code>b</code></pre>`)
	a := New()
	a.Annotate(doc)
	a.Annotate(doc)

	if n := doc.Find("span." + DefaultClass).Length(); n != 4 {
		t.Errorf("controls after two passes = %d, want 4", n)
	}
	doc.Find("pre").Each(func(i int, pre *goquery.Selection) {
		if n := pre.Children().Filter("span." + DefaultClass).Length(); n != 2 {
			t.Errorf("pre %d has %d controls, want 2", i, n)
		}
	})
}

func TestAnnotateOptions(t *testing.T) {
	doc := mustDoc(t, `<pre><code>x</code></pre>`)
	a := New(WithClass("copy"), WithLabel("Copy"), WithMessage("copied!"))
	a.Annotate(doc)

	ctl := doc.Find("pre > span.copy")
	if ctl.Length() != 1 {
		t.Fatalf("controls with custom class = %d, want 1", ctl.Length())
	}
	if ctl.Text() != "Copy" {
		t.Errorf("label = %q, want Copy", ctl.Text())
	}
	if a.Message() != "copied!" {
		t.Errorf("message = %q", a.Message())
	}
}

func TestEmptyOptionsKeepDefaults(t *testing.T) {
	a := New(WithClass(""), WithMessage(""))
	if a.Class() != DefaultClass || a.Message() != DefaultMessage {
		t.Errorf("got class=%q message=%q, want defaults", a.Class(), a.Message())
	}
}

func TestAnnotateHTMLFragment(t *testing.T) {
	src := []byte(`<p>intro</p><pre><code class="language-go">fmt.Println("hi")</code></pre>`)
	out, blocks, err := New().AnnotateHTML(src, true)
	if err != nil {
		t.Fatalf("AnnotateHTML: %v", err)
	}
	got := string(out)
	if strings.Contains(got, "<html") || strings.Contains(got, "<body") {
		t.Errorf("fragment output should not be wrapped: %s", got)
	}
	want := `<pre><code class="language-go">fmt.Println(&#34;hi&#34;)</code><span class="copy-button" data-copy-index="0"></span></pre>`
	if !strings.Contains(got, want) {
		t.Errorf("output = %s\nwant to contain %s", got, want)
	}
	if len(blocks) != 1 || blocks[0].Language != "go" {
		t.Errorf("blocks = %+v, want one go block", blocks)
	}
}

func TestAnnotateHTMLDocument(t *testing.T) {
	src := []byte(`<!DOCTYPE html><html><head><title>t</title></head><body><pre><code>x</code></pre></body></html>`)
	out, _, err := New().AnnotateHTML(src, false)
	if err != nil {
		t.Fatalf("AnnotateHTML: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "<!DOCTYPE html>") {
		t.Errorf("document output should keep the doctype: %s", got)
	}
	if !strings.Contains(got, `<span class="copy-button" data-copy-index="0"></span></pre>`) {
		t.Errorf("missing control: %s", got)
	}
}

func TestBlocksDoesNotAnnotate(t *testing.T) {
	blocks, err := Blocks([]byte(`<pre><code>a</code></pre><pre><code class="language-sh">b</code></pre>`))
	if err != nil {
		t.Fatalf("Blocks: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[1].Text() != "b" || blocks[1].Language != "sh" {
		t.Errorf("second block = %q (%s)", blocks[1].Text(), blocks[1].Language)
	}
	if blocks[0].Node.Parent.LastChild != blocks[0].Node {
		t.Error("Blocks should not append controls")
	}
}

func TestLookup(t *testing.T) {
	blocks, _ := Blocks([]byte(`<pre><code>a</code></pre>`))
	if _, err := Lookup(blocks, 0); err != nil {
		t.Errorf("Lookup(0): %v", err)
	}
	if _, err := Lookup(blocks, 3); !errors.Is(err, ErrNoSuchBlock) {
		t.Errorf("Lookup(3) err = %v, want ErrNoSuchBlock", err)
	}
}

func TestClickCopiesBlockTextOnly(t *testing.T) {
	doc := mustDoc(t, `<pre><code>hello world</code></pre>`)
	a := New(WithLabel("Copy"))
	blocks := a.Annotate(doc)

	clip := &recordingClipboard{}
	notices := &recordingNotifier{}
	controls := a.Bind(blocks, clip, notices)
	if len(controls) != 1 {
		t.Fatalf("controls = %d, want 1", len(controls))
	}

	if err := waitResult(t, controls[0].Click(context.Background())); err != nil {
		t.Fatalf("click: %v", err)
	}

	got := clip.written()
	if len(got) != 1 || got[0] != "hello world" {
		t.Errorf("clipboard writes = %q, want [\"hello world\"]", got)
	}
	if notices.count() != 1 || notices.messages[0] != DefaultMessage {
		t.Errorf("notices = %v, want [%q]", notices.messages, DefaultMessage)
	}
}

func TestClickReadsCurrentText(t *testing.T) {
	doc := mustDoc(t, `<pre><code>before</code></pre>`)
	a := New()
	blocks := a.Annotate(doc)
	blocks[0].Node.FirstChild.Data = "after"

	clip := &recordingClipboard{}
	ctl := a.Bind(blocks, clip, &recordingNotifier{})[0]
	waitResult(t, ctl.Click(context.Background()))

	if got := clip.written(); len(got) != 1 || got[0] != "after" {
		t.Errorf("clipboard writes = %q, want [after]", got)
	}
}

func TestClickNotifiesEvenWhenWriteFails(t *testing.T) {
	doc := mustDoc(t, `<pre><code>x</code></pre>`)
	a := New()
	blocks := a.Annotate(doc)

	writeErr := errors.New("permission denied")
	clip := &recordingClipboard{err: writeErr}
	notices := &recordingNotifier{}
	ctl := a.Bind(blocks, clip, notices)[0]

	err := waitResult(t, ctl.Click(context.Background()))
	if !errors.Is(err, writeErr) {
		t.Errorf("result = %v, want %v", err, writeErr)
	}
	if notices.count() != 1 {
		t.Errorf("notices = %d, want 1 even though the write failed", notices.count())
	}
}

func TestClickDoesNotWaitForWrite(t *testing.T) {
	doc := mustDoc(t, `<pre><code>x</code></pre>`)
	a := New()
	blocks := a.Annotate(doc)

	release := make(chan struct{})
	slow := clipboard.WriterFunc(func(ctx context.Context, text string) error {
		<-release
		return nil
	})
	notified := make(chan struct{}, 1)
	n := notify.NotifierFunc(func(ctx context.Context, message string) error {
		notified <- struct{}{}
		return nil
	})

	result := a.Bind(blocks, slow, n)[0].Click(context.Background())

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("notice should be shown before the write completes")
	}
	close(release)
	if err := waitResult(t, result); err != nil {
		t.Errorf("result = %v", err)
	}
}

func TestClickAndWaitSkipsNoticeOnFailure(t *testing.T) {
	doc := mustDoc(t, `<pre><code>x</code></pre>`)
	a := New()
	blocks := a.Annotate(doc)

	clip := &recordingClipboard{err: errors.New("denied")}
	notices := &recordingNotifier{}
	if err := a.Bind(blocks, clip, notices)[0].ClickAndWait(context.Background()); err == nil {
		t.Error("expected error from failed write")
	}
	if notices.count() != 0 {
		t.Errorf("notices = %d, want 0", notices.count())
	}

	clip.err = nil
	if err := a.Bind(blocks, clip, notices)[0].ClickAndWait(context.Background()); err != nil {
		t.Errorf("ClickAndWait: %v", err)
	}
	if notices.count() != 1 {
		t.Errorf("notices = %d, want 1", notices.count())
	}
}

func TestControlsAreIndependent(t *testing.T) {
	doc := mustDoc(t, `<pre><code>first</code></pre><pre><code>second</code></pre>`)
	a := New()
	clip := &recordingClipboard{}
	controls := a.Bind(a.Annotate(doc), clip, &recordingNotifier{})

	waitResult(t, controls[1].Click(context.Background()))
	waitResult(t, controls[0].Click(context.Background()))

	got := clip.written()
	if strings.Join(got, ",") != "second,first" {
		t.Errorf("writes = %v, want [second first]", got)
	}
}
