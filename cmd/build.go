package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/codecopy/internal/progress"
	"github.com/ziadkadry99/codecopy/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate a static site with copy buttons",
	Long:  `Renders every configured page and every file matching content_glob under content_dir to static HTML, with a copy control on each code block.`,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("output", "", "override output directory (defaults to output_dir from the config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	reporter := progress.NewReporter()
	if verbose {
		reporter = &progress.LineReporter{Out: os.Stderr}
	}

	builder := &site.Builder{
		ContentDir:  cfg.ContentDir,
		ContentGlob: cfg.ContentGlob,
		Pages:       cfg.Pages,
		OutputDir:   outputDir,
		SiteTitle:   cfg.SiteTitle,
		Version:     uuid.NewString()[:8],
		Renderer:    newRenderer(cfg),
		Reporter:    reporter,
	}
	pageCount, err := builder.Build()
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}

	fmt.Printf("Static site generated: %s (%d pages)\n", outputDir, pageCount)
	return nil
}
