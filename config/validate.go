package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "compiler.max_depth").
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate returns a ValidationError if any rule fails, nil otherwise.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Source == "" {
		errs = append(errs, FieldError{Field: "source", Message: "must not be empty"})
	}
	if cfg.Destination == "" {
		errs = append(errs, FieldError{Field: "destination", Message: "must not be empty"})
	}
	if cfg.Source != "" && cfg.Destination != "" && isWithin(cfg.Source, cfg.Destination) {
		errs = append(errs, FieldError{Field: "destination", Message: "must not be inside source"})
	}

	for i, ext := range cfg.Extensions {
		if strings.TrimSpace(ext) == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("extensions[%d]", i), Message: "must not be empty"})
		}
	}

	if cfg.Compiler.MaxDepth < 1 {
		errs = append(errs, FieldError{Field: "compiler.max_depth", Message: "must be at least 1"})
	}

	if !contains(validLogLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of %s", strings.Join(validLogLevels, ", ")),
		})
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{Field: "watch.debounce", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// isWithin reports whether child is parent or below it.
func isWithin(parent, child string) bool {
	p, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	c, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p, c)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
