package config

import (
	"fmt"
	"net/netip"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: CODECOPY_COPY__MESSAGE sets copy.message.
const EnvPrefix = "CODECOPY_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CODECOPY_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var cssIdent = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if c.ContentGlob != "" && !doublestar.ValidatePattern(c.ContentGlob) {
		return fmt.Errorf("invalid content_glob %q", c.ContentGlob)
	}

	for _, p := range c.TrustedProxies {
		if _, err := ParseProxy(p); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(c.Pages))
	for i, p := range c.Pages {
		if !strings.HasPrefix(p.URL, "/") {
			return fmt.Errorf("pages[%d]: url %q must start with /", i, p.URL)
		}
		if seen[p.URL] {
			return fmt.Errorf("pages[%d]: duplicate url %q", i, p.URL)
		}
		seen[p.URL] = true
		if p.ContentPath == "" {
			return fmt.Errorf("pages[%d]: content_path is required", i)
		}
	}

	if !cssIdent.MatchString(c.Copy.Class) {
		return fmt.Errorf("invalid copy.class %q: must be a single CSS class name", c.Copy.Class)
	}
	if strings.TrimSpace(c.Copy.Message) == "" {
		return fmt.Errorf("copy.message is required")
	}

	return nil
}

// ParseProxy parses a trusted proxy entry, either a single address or a CIDR range.
func ParseProxy(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid trusted proxy %q: %w", s, err)
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid trusted proxy %q: %w", s, err)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
