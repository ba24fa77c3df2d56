// Package config loads the YAML configuration of a csi site build.
package config

import "time"

// Config is the root configuration of a site build.
type Config struct {
	// Source is the directory tree holding templates and static files.
	Source string `yaml:"source"`

	// Destination is the directory compiled output is written to.
	Destination string `yaml:"destination"`

	// Extensions lists the file name suffixes that are compiled; every other
	// file is copied verbatim.
	Extensions []string `yaml:"extensions"`

	// Compiler contains directive compiler settings.
	Compiler CompilerConfig `yaml:"compiler"`

	// Vars are site-wide variables, consulted after a file's own variables
	// and before the process environment.
	Vars map[string]string `yaml:"vars"`

	Logging LoggingConfig `yaml:"logging"`
	Serve   ServeConfig   `yaml:"serve"`
	Watch   WatchConfig   `yaml:"watch"`
}

// CompilerConfig contains directive compiler settings.
type CompilerConfig struct {
	// Lenient makes unrecognized directives expand to nothing instead of
	// failing the build.
	Lenient bool `yaml:"lenient"`

	// MaxDepth is the maximum include nesting.
	MaxDepth int `yaml:"max_depth"`

	// IgnoreEnv disables the process environment fallback for variables.
	IgnoreEnv bool `yaml:"ignore_env"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Address string `yaml:"address"`
}

// WatchConfig configures rebuild on change.
type WatchConfig struct {
	// Debounce is how long to wait after the last change before rebuilding.
	Debounce time.Duration `yaml:"debounce"`
}
