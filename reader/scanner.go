package reader

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// maxWidth bounds the number of values a header may declare per line. A
// line that long already fills the scanner buffer.
const maxWidth = 1 << 22

// lineScanner walks the non-empty lines of a text input and keeps track of
// line numbers for error reporting.
type lineScanner struct {
	path string
	sc   *bufio.Scanner
	line int
}

func newLineScanner(r io.Reader, path string) *lineScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &lineScanner{path: path, sc: sc}
}

func (s *lineScanner) errorf(format string, args ...interface{}) error {
	return &FormatError{Path: s.path, Line: s.line, Msg: fmt.Sprintf(format, args...)}
}

// next returns the next non-empty line with surrounding space trimmed.
// what names the expected content for the premature EOF message.
func (s *lineScanner) next(what string) (string, error) {
	for s.sc.Scan() {
		s.line++
		text := strings.TrimSpace(s.sc.Text())
		if text != "" {
			return text, nil
		}
	}
	if err := s.sc.Err(); err != nil {
		return "", fmt.Errorf("%s: read: %w", s.path, err)
	}
	return "", &FormatError{
		Path: s.path,
		Line: s.line,
		Msg:  fmt.Sprintf("unexpected EOF while reading %s", what),
	}
}

// ints reads the next non-empty line as exactly want integers. A negative
// want accepts any count.
func (s *lineScanner) ints(what string, want int) ([]int64, error) {
	text, err := s.next(what)
	if err != nil {
		return nil, err
	}
	return s.parseInts(text, want)
}

func (s *lineScanner) parseInts(text string, want int) ([]int64, error) {
	toks := strings.Fields(text)
	if want >= 0 && len(toks) != want {
		return nil, s.errorf("expected %d values, got %d: %q", want, len(toks), text)
	}
	vals := make([]int64, len(toks))
	for i, tok := range toks {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, s.errorf("non-integer token %q", tok)
		}
		vals[i] = v
	}
	return vals, nil
}

// counts parses a header of exactly want non-negative integers.
func (s *lineScanner) counts(what string, want int) ([]int, error) {
	text, err := s.next(what)
	if err != nil {
		return nil, err
	}
	toks := strings.Fields(text)
	if len(toks) != want {
		return nil, s.errorf("bad %s header %q: expected %d integers", what, text, want)
	}
	out := make([]int, want)
	for i, tok := range toks {
		v, err := strconv.Atoi(tok)
		if err != nil || v < 0 {
			return nil, s.errorf("bad %s header %q: %q is not a count", what, text, tok)
		}
		out[i] = v
	}
	return out, nil
}

// checkShape rejects header dimensions that cannot describe a readable
// input: lines wider than maxWidth or a rows×cols count that overflows int.
func (s *lineScanner) checkShape(what string, rows, cols int) error {
	if cols > maxWidth {
		return s.errorf("%s width %d exceeds the limit of %d values per line", what, cols, maxWidth)
	}
	if cols > 0 && rows > math.MaxInt/cols {
		return s.errorf("%s shape %dx%d is too large", what, rows, cols)
	}
	return nil
}
