package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	blog "github.com/goliatone/go-blog"
)

// Options captures the command line overrides applied on top of the config file.
type Options struct {
	ConfigPath string
	ContentDir string
	OutputDir  string
	BaseURL    string
	ThemePath  string
	LogLevel   string
	LogFormat  string
	Clean      bool
}

// BuildModule loads configuration and constructs a blog module. A missing
// config file falls back to defaults so a bare content directory still builds.
func BuildModule(opts Options) (*blog.Module, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	module, err := blog.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise blog module: %w", err)
	}
	return module, nil
}

// LoadConfig resolves the effective configuration from file plus overrides.
func LoadConfig(opts Options) (blog.Config, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = "blog.yaml"
	}

	cfg, err := blog.LoadConfig(path)
	if err != nil {
		if !errors.Is(err, blog.ErrConfigNotFound) {
			return cfg, err
		}
		// Explicit config paths must exist; the default name is optional.
		if strings.TrimSpace(opts.ConfigPath) != "" {
			return cfg, err
		}
		cfg = blog.DefaultConfig()
	}

	if dir := strings.TrimSpace(opts.ContentDir); dir != "" {
		cfg.Content.Dir = dir
	}
	if dir := strings.TrimSpace(opts.OutputDir); dir != "" {
		cfg.Build.OutputDir = dir
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.Site.BaseURL = base
	}
	if path := strings.TrimSpace(opts.ThemePath); path != "" {
		cfg.Theme.Path = path
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := strings.TrimSpace(opts.LogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if opts.Clean {
		cfg.Build.Clean = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SplitTags parses a comma separated tag list, dropping empties.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
