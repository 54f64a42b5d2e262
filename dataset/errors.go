package dataset

import "fmt"

// MissingColumnError reports a column the input file does not have.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("dataset: missing required column %q", e.Column)
}

// ParseError reports a cell that could not be read as a number.
// Row is the zero-based dataset row (after cleaning) for errors from Dataset
// methods, and the position in the slice for ParseFloats.
type ParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset: column %q row %d: cannot parse %q as a number: %v",
		e.Column, e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
