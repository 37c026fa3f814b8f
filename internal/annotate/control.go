package annotate

import (
	"context"

	"github.com/ziadkadry99/codecopy/internal/clipboard"
	"github.com/ziadkadry99/codecopy/internal/notify"
)

// Control is the click action bound to one code block.
type Control struct {
	Block    Block
	writer   clipboard.Writer
	notifier notify.Notifier
	message  string
}

// Bind creates one control per block. Controls share the writer and notifier
// but hold no state of their own.
func (a *Annotator) Bind(blocks []Block, w clipboard.Writer, n notify.Notifier) []*Control {
	controls := make([]*Control, 0, len(blocks))
	for _, b := range blocks {
		controls = append(controls, &Control{Block: b, writer: w, notifier: n, message: a.message})
	}
	return controls
}

// Click starts the clipboard write with the block's current text and shows
// the notice right away, without waiting for the write. The notice is shown
// even if the write later fails; the outcome is only visible on the returned
// channel.
func (c *Control) Click(ctx context.Context) <-chan error {
	result := clipboard.WriteAsync(ctx, c.writer, c.Block.Text())
	_ = c.notifier.Notify(ctx, c.message)
	return result
}

// ClickAndWait waits for the clipboard write and shows the notice only when
// it succeeded.
func (c *Control) ClickAndWait(ctx context.Context) error {
	if err := c.writer.WriteText(ctx, c.Block.Text()); err != nil {
		return err
	}
	return c.notifier.Notify(ctx, c.message)
}
