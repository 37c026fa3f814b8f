package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress while the site builder renders pages.
type Reporter interface {
	Start(total int)
	Update(current int, page string)
	Finish()
}

// NewReporter returns a line-based reporter when running under CI and a
// progress bar otherwise. Both write to stderr.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineReporter{Out: os.Stderr}
	}
	return &BarReporter{Out: os.Stderr}
}

// BarReporter draws a progress bar.
type BarReporter struct {
	Out io.Writer
	bar *progressbar.ProgressBar
}

func (r *BarReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetDescription("Rendering pages"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *BarReporter) Update(current int, page string) {
	if r.bar != nil {
		r.bar.Describe(page)
		_ = r.bar.Set(current)
	}
}

func (r *BarReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LineReporter prints one line per page, suitable for CI logs.
type LineReporter struct {
	Out   io.Writer
	total int
}

func (r *LineReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.Out, "Rendering %d pages\n", total)
}

func (r *LineReporter) Update(current int, page string) {
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", current, r.total, page)
}

func (r *LineReporter) Finish() {
	fmt.Fprintln(r.Out, "Site build complete")
}

// Discard ignores all progress.
type Discard struct{}

func (Discard) Start(int)          {}
func (Discard) Update(int, string) {}
func (Discard) Finish()            {}
