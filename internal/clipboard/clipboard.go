// Package clipboard writes text to the system clipboard.
//
// Writes go through the Writer interface so callers can swap the backend: the
// OS clipboard via atotto/clipboard, an OSC52 escape sequence for remote
// terminals, or a chain of both.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
)

var (
	// ErrUnsupported is returned when no clipboard utility exists on this platform.
	ErrUnsupported = errors.New("clipboard: not supported")
	// ErrNoTerminal is returned by OSC52 when the output is not an interactive terminal.
	ErrNoTerminal = errors.New("clipboard: OSC52 unavailable (not a terminal or TERM=dumb)")
)

// Writer sets the clipboard contents.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// WriterFunc adapts a plain function to the Writer interface.
type WriterFunc func(ctx context.Context, text string) error

func (f WriterFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

// System writes to the OS clipboard (pbcopy, xclip/xsel/wl-copy, or the Win32 API).
type System struct{}

func (System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard copy failed: %w", err)
	}
	return nil
}

// OSC52 asks the terminal emulator to set the clipboard by writing an
// OSC52 escape sequence to Out. It works over SSH where System cannot.
type OSC52 struct {
	Out  io.Writer
	Term string // value of $TERM
	Tmux bool   // wrap the sequence for tmux passthrough
}

// NewOSC52 returns an OSC52 writer for f using the current environment.
func NewOSC52(f *os.File) *OSC52 {
	return &OSC52{
		Out:  f,
		Term: os.Getenv("TERM"),
		Tmux: os.Getenv("TMUX") != "",
	}
}

func (o *OSC52) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !o.supported() {
		return ErrNoTerminal
	}
	seq := osc52.New(text)
	if o.Tmux {
		seq = seq.Tmux()
	}
	if _, err := seq.WriteTo(o.Out); err != nil {
		return fmt.Errorf("writing OSC52 sequence: %w", err)
	}
	return nil
}

func (o *OSC52) supported() bool {
	if o.Out == nil || o.Term == "" || strings.EqualFold(o.Term, "dumb") {
		return false
	}
	if f, ok := o.Out.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return true
}

// Chain tries each writer in order and stops at the first success.
type Chain []Writer

func (c Chain) WriteText(ctx context.Context, text string) error {
	if len(c) == 0 {
		return ErrUnsupported
	}
	var errs []error
	for _, w := range c {
		err := w.WriteText(ctx, text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

// WithTimeout bounds every write of w by d. The caller's context still applies.
func WithTimeout(w Writer, d time.Duration) Writer {
	if d <= 0 {
		return w
	}
	return WriterFunc(func(ctx context.Context, text string) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return w.WriteText(ctx, text)
	})
}

// Default returns the OS clipboard with an OSC52 fallback on stdout.
func Default() Writer {
	return Chain{System{}, NewOSC52(os.Stdout)}
}

// WriteAsync starts the write in its own goroutine and returns immediately.
// The returned channel yields exactly one result and is then closed.
func WriteAsync(ctx context.Context, w Writer, text string) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		result <- w.WriteText(ctx, text)
	}()
	return result
}
