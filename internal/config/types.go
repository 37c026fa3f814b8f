package config

// Page maps a URL to a content file and the skeleton that wraps it.
type Page struct {
	URL          string `yaml:"url" koanf:"url"`
	SkeletonPath string `yaml:"skeleton_path,omitempty" koanf:"skeleton_path"`
	ContentPath  string `yaml:"content_path" koanf:"content_path"`
	Title        string `yaml:"title" koanf:"title"`
}

// StaticConfig lists directories served as-is.
type StaticConfig struct {
	Assets  string `yaml:"assets" koanf:"assets"`
	Styles  string `yaml:"styles" koanf:"styles"`
	Scripts string `yaml:"scripts" koanf:"scripts"`
}

// CopyConfig controls the copy controls added to code blocks.
type CopyConfig struct {
	Class   string `yaml:"class" koanf:"class"`
	Label   string `yaml:"label" koanf:"label"`
	Message string `yaml:"message" koanf:"message"`
}

// Config is the top-level codecopy configuration, corresponding to .codecopy.yml.
type Config struct {
	Port           int          `yaml:"port" koanf:"port"`
	SiteTitle      string       `yaml:"site_title" koanf:"site_title"`
	TrustedProxies []string     `yaml:"trusted_proxies" koanf:"trusted_proxies"`
	Pages          []Page       `yaml:"pages" koanf:"pages"`
	ContentDir     string       `yaml:"content_dir" koanf:"content_dir"`
	ContentGlob    string       `yaml:"content_glob" koanf:"content_glob"`
	OutputDir      string       `yaml:"output_dir" koanf:"output_dir"`
	Static         StaticConfig `yaml:"static" koanf:"static"`
	Favicon        string       `yaml:"favicon" koanf:"favicon"`
	Sanitize       bool         `yaml:"sanitize" koanf:"sanitize"`
	Copy           CopyConfig   `yaml:"copy" koanf:"copy"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:           6767,
		SiteTitle:      "Documentation",
		TrustedProxies: []string{"127.0.0.1"},
		ContentDir:     "content",
		ContentGlob:    "**/*.md",
		OutputDir:      "site",
		Static: StaticConfig{
			Assets:  "assets",
			Styles:  "styles",
			Scripts: "scripts",
		},
		Favicon: "assets/favicon.ico",
		Copy: CopyConfig{
			Class:   "copy-button",
			Message: "text copied",
		},
	}
}
