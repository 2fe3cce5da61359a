package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError reports one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Validate reports every invalid setting in c.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field string, value any, msg string) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Cache.MaxSize < 0 {
		invalid("cache.max_size", c.Cache.MaxSize, "must not be negative")
	}
	if c.Performance.TargetParseTimeMs < 0 {
		invalid("performance.target_parse_time_ms", c.Performance.TargetParseTimeMs, "must not be negative")
	}
	if c.Log.Verbosity < 0 {
		invalid("log.verbosity", c.Log.Verbosity, "must not be negative")
	}
	if c.Workspace.Jobs < 0 {
		invalid("workspace.jobs", c.Workspace.Jobs, "must not be negative")
	}
	for _, pattern := range c.Workspace.Include {
		if !doublestar.ValidatePattern(pattern) {
			invalid("workspace.include", pattern, "is not a valid glob")
		}
	}
	for _, pattern := range c.Workspace.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			invalid("workspace.exclude", pattern, "is not a valid glob")
		}
	}
	return errors.Join(errs...)
}
