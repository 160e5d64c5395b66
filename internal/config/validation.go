package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTools()...)
	errors = append(errors, c.validateTimeout()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateTools() []ValidationError {
	var errors []ValidationError

	tools := []struct {
		path  string
		value string
	}{
		{"python", c.Python},
		{"readelf", c.ReadElf},
		{"nvcc", c.NVCC},
	}
	for _, tool := range tools {
		if strings.TrimSpace(tool.value) == "" {
			errors = append(errors, ValidationError{
				Path:    tool.path,
				Message: "must not be empty",
			})
			continue
		}
		if strings.ContainsAny(tool.value, "\n\r") {
			errors = append(errors, ValidationError{
				Path:    tool.path,
				Message: fmt.Sprintf("must be a single command name or path, got %q", tool.value),
			})
		}
	}

	return errors
}

func (c *Config) validateTimeout() []ValidationError {
	if c.TimeoutSeconds >= 0 {
		return nil
	}

	return []ValidationError{{
		Path:    "timeout_seconds",
		Message: fmt.Sprintf("must be non-negative, got %d", c.TimeoutSeconds),
	}}
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		errors = append(errors, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
		})
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		errors = append(errors, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validFormats, c.Logging.Format),
		})
	}

	return errors
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
