package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// detectContentDir picks the first conventional docs directory that exists.
func detectContentDir() string {
	for _, dir := range []string{"content", "docs", "doc", "pages"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "content"
}

// detectIndexPage returns the first index-like markdown file under dir.
func detectIndexPage(dir string) string {
	for _, name := range []string{"index.md", "README.md", "readme.md"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to codecopy! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site title.
	titlePrompt := promptui.Prompt{
		Label:   "Site title",
		Default: filepath.Base(mustGetwd()),
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site title: %w", err)
	}
	cfg.SiteTitle = strings.TrimSpace(title)

	// 2. Content directory.
	dirPrompt := promptui.Prompt{
		Label:   "Content directory",
		Default: detectContentDir(),
	}
	contentDir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	cfg.ContentDir = strings.TrimSpace(contentDir)

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 4. Sanitising.
	sanitizePrompt := promptui.Select{
		Label: "Sanitize rendered HTML",
		Items: []string{
			"no:  trusted content, raw HTML allowed",
			"yes: strip scripts and unsafe attributes",
		},
	}
	sanitizeIdx, _, err := sanitizePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sanitize selection: %w", err)
	}
	cfg.Sanitize = sanitizeIdx == 1

	// 5. Confirmation notice.
	messagePrompt := promptui.Prompt{
		Label:   "Copy confirmation message",
		Default: cfg.Copy.Message,
	}
	message, err := messagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("copy message: %w", err)
	}
	cfg.Copy.Message = strings.TrimSpace(message)

	if index := detectIndexPage(cfg.ContentDir); index != "" {
		cfg.Pages = []Page{{URL: "/", ContentPath: index, Title: cfg.SiteTitle}}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("Run `codecopy serve` to start the server or `codecopy build` for a static site.")
	return cfg, nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "docs"
	}
	return wd
}
