package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSourceNotFound marks a missing input dataset. The service stays up in a
// valid empty state; the operator sees the condition via logs and /readyz.
var ErrSourceNotFound = errors.New("data source not found")

// ErrInvalidState rejects an operation that has no meaning in the current
// replay state, e.g. injecting a disruption before any data is revealed.
var ErrInvalidState = errors.New("invalid replay state")

// SchemaError reports required columns absent from a source. It is fatal for
// that source but never crashes the process.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source missing required columns: %s", strings.Join(e.Missing, ", "))
}
