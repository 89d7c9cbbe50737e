package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/idilsaglam/backlog/internal/ui"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

const maxWorkers = 64

// Validate returns every invalid field.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Paths.Root) == "" {
		errs = append(errs, ValidationError{Field: "paths.root", Value: c.Paths.Root, Message: "must not be empty"})
	}
	if strings.TrimSpace(c.Paths.Data) == "" {
		errs = append(errs, ValidationError{Field: "paths.data", Value: c.Paths.Data, Message: "must not be empty"})
	}
	if !slices.Contains(ui.Themes, strings.ToLower(c.UI.Theme)) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Value:   c.UI.Theme,
			Message: "must be one of " + strings.Join(ui.Themes, ", "),
		})
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	if c.Dates.Workers < 1 || c.Dates.Workers > maxWorkers {
		errs = append(errs, ValidationError{
			Field:   "dates.workers",
			Value:   c.Dates.Workers,
			Message: fmt.Sprintf("must be between 1 and %d", maxWorkers),
		})
	}
	return errs
}
