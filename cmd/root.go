package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "codecopy",
	Short: "Serve documentation pages with a copy button on every code block",
	Long: `codecopy renders markdown and HTML pages, appends a copy control to every
code block and serves them over HTTP (full pages or HTMX partials) or writes
them out as a static site. Code blocks can also be copied from the terminal.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".codecopy.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
