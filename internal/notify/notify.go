// Package notify shows the confirmation notice after a copy.
package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// DefaultPrompt is printed after the message by a blocking Console.
const DefaultPrompt = "Press Enter to continue..."

// Notifier presents a message to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string) error

func (f NotifierFunc) Notify(ctx context.Context, message string) error { return f(ctx, message) }

// Console prints the message to Out. When Blocking is set it behaves like a
// modal: it waits for a line on In before returning.
type Console struct {
	Out      io.Writer
	In       io.Reader
	Blocking bool
	Prompt   string
}

// New returns a Console that blocks only when in is an interactive terminal.
func New(out io.Writer, in *os.File) *Console {
	blocking := in != nil && (isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()))
	return &Console{Out: out, In: in, Blocking: blocking, Prompt: DefaultPrompt}
}

func (c *Console) Notify(ctx context.Context, message string) error {
	if _, err := fmt.Fprintln(c.Out, message); err != nil {
		return err
	}
	if !c.Blocking || c.In == nil {
		return nil
	}

	prompt := c.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	fmt.Fprint(c.Out, prompt)

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(c.In).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
