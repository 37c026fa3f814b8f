package cmd

import (
	"fmt"

	"github.com/ziadkadry99/codecopy/internal/annotate"
	"github.com/ziadkadry99/codecopy/internal/config"
	"github.com/ziadkadry99/codecopy/internal/site"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `codecopy init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newAnnotator builds the copy-control annotator from the copy section of cfg.
func newAnnotator(cfg *config.Config) *annotate.Annotator {
	return annotate.New(
		annotate.WithClass(cfg.Copy.Class),
		annotate.WithLabel(cfg.Copy.Label),
		annotate.WithMessage(cfg.Copy.Message),
	)
}

func newRenderer(cfg *config.Config) *site.Renderer {
	return site.NewRenderer(newAnnotator(cfg), cfg.Sanitize)
}
