package reader

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError via errors.Is.
var ErrFormat = errors.New("reader: malformed input")

// FormatError describes malformed input: a bad header, a wrong token count,
// a non-integer token or a premature end of file. Line is 1-based; 0 means
// the error is not tied to a line.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
