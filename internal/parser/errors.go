// Package parser converts fetched response bodies into domain records.
// Parsers never panic on malformed input; every failure is a *ParseError.
package parser

import (
	"errors"
	"fmt"
)

// ErrParse matches every *ParseError via errors.Is.
var ErrParse = errors.New("parse error")

// ParseError reports a document that could not be turned into records.
type ParseError struct {
	Document string // e.g. "stream list", "invertebrate detail"
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(document string, err error) error {
	return &ParseError{Document: document, Err: err}
}

func parseErrf(document, format string, args ...any) error {
	return &ParseError{Document: document, Err: fmt.Errorf(format, args...)}
}
