package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/codecopy/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured pages over HTTP",
	Long: `Starts an HTTP server for every page in the config. Requests carrying
HX-Request: true receive the annotated content only, other requests get the
full page rendered into its skeleton.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("cors-all", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if len(cfg.Pages) == 0 {
		return fmt.Errorf("no pages configured in %s", cfgFile)
	}

	srvCfg := server.FromConfig(cfg)
	srvCfg.AllowAll, _ = cmd.Flags().GetBool("cors-all")

	srv, err := server.New(srvCfg, newRenderer(cfg))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "codecopy %s serving %d pages on http://localhost:%d\n", Version, len(cfg.Pages), cfg.Port)
	if verbose {
		for _, p := range cfg.Pages {
			fmt.Fprintf(os.Stderr, "  %s -> %s\n", p.URL, p.ContentPath)
		}
	}

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
