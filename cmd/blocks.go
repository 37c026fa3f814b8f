package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/codecopy/internal/annotate"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks <file>",
	Short: "List the code blocks of a page",
	Long:  `Renders a markdown or HTML file the way the server does and lists each code block with its index, language and first line.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runBlocks,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
}

func runBlocks(cmd *cobra.Command, args []string) error {
	blocks, err := pageBlocks(args[0])
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Printf("%s has no code blocks\n", args[0])
		return nil
	}

	for _, b := range blocks {
		fmt.Printf("%3d  %-10s %s\n", b.Index, orDash(b.Language), firstLine(b.Text()))
	}
	return nil
}

// pageBlocks renders file with the configured renderer and returns its blocks.
func pageBlocks(file string) ([]annotate.Block, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	_, blocks, err := newRenderer(cfg).RenderFile(file)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", file, err)
	}
	return blocks, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
