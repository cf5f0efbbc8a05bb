package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	// ErrConfigNotFound signals a missing configuration file.
	ErrConfigNotFound = errors.New("runtimeconfig: config file not found")
	// ErrConfigInvalid signals a file that parsed but fails validation.
	ErrConfigInvalid = errors.New("runtimeconfig: config invalid")
)

// Config is the on-disk blog configuration, conventionally blog.yaml.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Build   BuildConfig   `yaml:"build"`
	Theme   ThemeConfig   `yaml:"theme"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig carries site-wide metadata surfaced to templates and feeds.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Author      string         `yaml:"author"`
	BaseURL     string         `yaml:"base_url"`
	Metadata    map[string]any `yaml:"metadata"`
}

// ContentConfig locates the content tree.
type ContentConfig struct {
	Dir string `yaml:"dir"`
	// Pattern filters which files each collection loads, doublestar syntax.
	Pattern string `yaml:"pattern"`
}

// BuildConfig controls static output generation.
type BuildConfig struct {
	OutputDir   string `yaml:"output_dir"`
	Clean       bool   `yaml:"clean"`
	Incremental bool   `yaml:"incremental"`
	CopyAssets  *bool  `yaml:"copy_assets"`
	Sitemap     *bool  `yaml:"sitemap"`
	Robots      *bool  `yaml:"robots"`
	Feeds       *bool  `yaml:"feeds"`
	Workers     int    `yaml:"workers"`
}

// ThemeConfig selects the theme that renders the site.
type ThemeConfig struct {
	// Path points at a theme directory. Empty selects the embedded default.
	Path    string `yaml:"path"`
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig shapes log output.
type LoggingConfig struct {
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns a config with working defaults for a local blog.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:       "Blog",
			Description: "A static blog",
		},
		Content: ContentConfig{
			Dir:     "content",
			Pattern: "**/*.md",
		},
		Build: BuildConfig{
			OutputDir:   "dist",
			Incremental: true,
			Workers:     4,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 4321,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFile reads and validates a YAML config, layered over DefaultConfig.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("runtimeconfig: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("runtimeconfig: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate enforces the invariants the rest of the system assumes.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Content.Dir) == "" {
		return fmt.Errorf("%w: content.dir is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(c.Build.OutputDir) == "" {
		return fmt.Errorf("%w: build.output_dir is required", ErrConfigInvalid)
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("%w: build.workers must not be negative", ErrConfigInvalid)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrConfigInvalid)
	}
	if base := strings.TrimSpace(c.Site.BaseURL); base != "" {
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			return fmt.Errorf("%w: site.base_url must start with http:// or https://", ErrConfigInvalid)
		}
	}
	return nil
}

// CopyAssetsEnabled reports the copy_assets toggle, defaulting to on.
func (c BuildConfig) CopyAssetsEnabled() bool { return boolOrDefault(c.CopyAssets, true) }

// SitemapEnabled reports the sitemap toggle, defaulting to on.
func (c BuildConfig) SitemapEnabled() bool { return boolOrDefault(c.Sitemap, true) }

// RobotsEnabled reports the robots toggle, defaulting to on.
func (c BuildConfig) RobotsEnabled() bool { return boolOrDefault(c.Robots, true) }

// FeedsEnabled reports the feeds toggle, defaulting to on.
func (c BuildConfig) FeedsEnabled() bool { return boolOrDefault(c.Feeds, true) }

// Address joins host and port for net listeners.
func (c ServerConfig) Address() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
