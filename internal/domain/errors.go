package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from the source header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// SourceUnavailableError reports a data source that does not exist or cannot be read.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("data source %q unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// PreparationError wraps an unexpected failure while deriving the prepared
// table. Row is the zero-based data row, or -1 when not row specific.
type PreparationError struct {
	Row    int
	Column string
	Err    error
}

func (e *PreparationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("prepare dataset: %v", e.Err)
	}
	return fmt.Sprintf("prepare dataset: row %d column %q: %v", e.Row, e.Column, e.Err)
}

func (e *PreparationError) Unwrap() error { return e.Err }

// ConfigError reports a malformed filter configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}
