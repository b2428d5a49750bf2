package weather

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFetch wraps every failure to obtain a forecast document: transport,
// status and decoding errors.
var ErrFetch = errors.New("forecast fetch failed")

// SchemaError reports input that does not have the expected shape.
type SchemaError struct {
	// Where describes the checked input, e.g. "response" or "record 3".
	Where   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch in %s: missing %s", e.Where, strings.Join(e.Missing, ", "))
}

// TimestampError reports a timestamp column that could not be parsed.
type TimestampError struct {
	Column string
	Value  string
	Err    error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("column %s: cannot parse timestamp %q: %v", e.Column, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}
