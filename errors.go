package ziptfrecord

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAnnotationsMissing is returned when no archive entry ends in the
// annotation file suffix.
var ErrAnnotationsMissing = errors.New("no annotation file found in the archive")

// Error wraps a failure with the operation that produced it.
type Error struct {
	Op  string // The operation that failed, e.g. "decode image".
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigError reports required job parameters that could not be resolved.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing required parameters: " + strings.Join(e.Missing, ", ")
}
