package chess

import (
	"fmt"
	"strings"
)

// FormatError reports a malformed position encoding or transcript.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Input == "" {
		return "format error: " + e.Reason
	}
	return fmt.Sprintf("format error: %s (input %q)", e.Reason, e.Input)
}

func formatErrorf(input, format string, args ...any) *FormatError {
	return &FormatError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// IllegalMoveError reports a token that matches no legal move in the position.
type IllegalMoveError struct {
	Token string
	FEN   string
	// Err carries the syntax problem when the token could not be parsed at all.
	Err error
}

func (e *IllegalMoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("illegal move %q: %v", e.Token, e.Err)
	}
	return fmt.Sprintf("illegal move %q in %s", e.Token, e.FEN)
}

func (e *IllegalMoveError) Unwrap() error { return e.Err }

// AmbiguousMoveError reports a token that selects more than one legal move.
type AmbiguousMoveError struct {
	Token      string
	Candidates []string
}

func (e *AmbiguousMoveError) Error() string {
	return fmt.Sprintf("ambiguous move %q: candidates %s", e.Token, strings.Join(e.Candidates, ", "))
}
