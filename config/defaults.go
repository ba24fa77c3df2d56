package config

import "time"

// Default values for configuration fields.
const (
	DefaultSource       = "src"
	DefaultDestination  = "dist"
	DefaultMaxDepth     = 64
	DefaultLogLevel     = "info"
	DefaultServeAddress = "127.0.0.1:8080"
	DefaultDebounce     = 100 * time.Millisecond
)

// DefaultExtensions are compiled when no extensions are configured.
var DefaultExtensions = []string{".html", ".htm", ".txt"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Compiler.MaxDepth == 0 {
		cfg.Compiler.MaxDepth = DefaultMaxDepth
	}
	if cfg.Vars == nil {
		cfg.Vars = map[string]string{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Serve.Address == "" {
		cfg.Serve.Address = DefaultServeAddress
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}
