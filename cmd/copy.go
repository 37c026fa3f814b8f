package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/codecopy/internal/annotate"
	"github.com/ziadkadry99/codecopy/internal/clipboard"
	"github.com/ziadkadry99/codecopy/internal/notify"
)

var copyCmd = &cobra.Command{
	Use:   "copy <file> <index>",
	Short: "Copy one code block of a page to the clipboard",
	Long: `Clicks the copy control of the code block at <index> (see "codecopy blocks").
The confirmation is shown straight away, like in the browser. Use --await to
confirm only after the clipboard write succeeded.`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

func init() {
	copyCmd.Flags().Bool("await", false, "wait for the clipboard write before confirming")
	copyCmd.Flags().Duration("timeout", 5*time.Second, "give up on the clipboard write after this long")
	rootCmd.AddCommand(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid block index %q", args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	blocks, err := pageBlocks(args[0])
	if err != nil {
		return err
	}
	block, err := annotate.Lookup(blocks, index)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	await, _ := cmd.Flags().GetBool("await")

	controls := newAnnotator(cfg).Bind(
		[]annotate.Block{block},
		clipboard.WithTimeout(clipboard.Default(), timeout),
		notify.New(os.Stdout, os.Stdin),
	)
	return clickControl(cmd.Context(), controls[0], await, os.Stderr)
}

// clickControl clicks ctl. The write timeout lives in the control's writer, so
// ctx only ends a blocking notice when the command itself is cancelled.
func clickControl(ctx context.Context, ctl *annotate.Control, await bool, stderr io.Writer) error {
	if await {
		return ctl.ClickAndWait(ctx)
	}

	// The notice is already shown; only wait so the write can finish
	// before the process exits.
	if err := <-ctl.Click(ctx); err != nil {
		fmt.Fprintf(stderr, "Warning: clipboard write failed: %v\n", err)
	}
	return nil
}
