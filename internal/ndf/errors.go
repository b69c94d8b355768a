package ndf

import (
	"errors"
	"fmt"
)

// ErrEmptyValue is returned by ParseValue for blank input.
var ErrEmptyValue = errors.New("empty value")

// ParseError is fatal for the whole file. Line and Column are 1-based and
// point at the start of the offending token.
type ParseError struct {
	Line    int
	Column  int
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}

	return fmt.Sprintf("line %d, column %d: %s (near %q)", e.Line, e.Column, e.Message, e.Token)
}

func errorAt(t Token, format string, args ...any) *ParseError {
	text := t.Text
	if len(text) > 32 {
		text = text[:32] + "..."
	}

	return &ParseError{
		Line:    t.Line,
		Column:  t.Column,
		Token:   text,
		Message: fmt.Sprintf(format, args...),
	}
}
