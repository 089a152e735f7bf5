package transform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema marks a raw table whose columns cannot be transformed
var ErrSchema = errors.New("schema error")

// FormatError describes a malformed raw schema
type FormatError struct {
	Reason  string
	Columns []string
}

func (e *FormatError) Error() string {
	if len(e.Columns) == 0 {
		return fmt.Sprintf("malformed raw schema: %s", e.Reason)
	}
	return fmt.Sprintf("malformed raw schema: %s: %s", e.Reason, strings.Join(e.Columns, ", "))
}

// Unwrap lets errors.Is match ErrSchema
func (e *FormatError) Unwrap() error {
	return ErrSchema
}
