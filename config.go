package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrConfigNotFound = runtimeconfig.ErrConfigNotFound
	ErrConfigInvalid  = runtimeconfig.ErrConfigInvalid
)

type (
	Config        = runtimeconfig.Config
	SiteConfig    = runtimeconfig.SiteConfig
	ContentConfig = runtimeconfig.ContentConfig
	BuildConfig   = runtimeconfig.BuildConfig
	ThemeConfig   = runtimeconfig.ThemeConfig
	ServerConfig  = runtimeconfig.ServerConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

// DefaultConfig returns a config with working defaults for a local blog.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads and validates a YAML config file, layered over defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}
