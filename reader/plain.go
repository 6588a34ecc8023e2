package reader

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"mfverify/matrix"
	"mfverify/query"
)

var (
	headerU = regexp.MustCompile(`(?i)^\s*U\s*\(\s*m\s*=\s*(\d+)\s*,\s*k\s*=\s*(\d+)\s*\)\s*$`)
	headerV = regexp.MustCompile(`(?i)^\s*V\s*\(\s*n\s*=\s*(\d+)\s*,\s*k\s*=\s*(\d+)\s*\)\s*$`)
	headerQ = regexp.MustCompile(`(?i)^\s*queries\s*\(\s*q\s*=\s*(\d+)\s*\)\s*$`)
)

// Plain is the combined ground-truth file: plaintext U and V plus an
// index-only query list.
type Plain struct {
	U       *matrix.Matrix
	V       *matrix.Matrix
	Queries []query.Raw
}

// ReadPlain parses the combined plaintext file:
//
//	U (m=<int>, k=<int>)   followed by m rows of k integers
//	V (n=<int>, k=<int>)   followed by n rows of k integers
//	queries (q=<int>)      followed by q lines "user item"
//
// Headers are case-insensitive. U and V must agree on k.
func ReadPlain(r io.Reader, path string) (*Plain, error) {
	s := newLineScanner(r, path)

	uh, err := s.header("U", headerU, "U (m=..., k=...)")
	if err != nil {
		return nil, err
	}
	u, err := readRows(s, "U", uh[0], uh[1])
	if err != nil {
		return nil, err
	}

	vh, err := s.header("V", headerV, "V (n=..., k=...)")
	if err != nil {
		return nil, err
	}
	if vh[1] != uh[1] {
		return nil, s.errorf("k mismatch between U(k=%d) and V(k=%d)", uh[1], vh[1])
	}
	v, err := readRows(s, "V", vh[0], vh[1])
	if err != nil {
		return nil, err
	}

	qh, err := s.header("queries", headerQ, "queries (q=...)")
	if err != nil {
		return nil, err
	}
	var queries []query.Raw
	for i := 0; i < qh[0]; i++ {
		vals, err := s.ints(fmt.Sprintf("query %d of %d", i+1, qh[0]), 2)
		if err != nil {
			return nil, err
		}
		queries = append(queries, query.Raw{User: int(vals[0]), Item: int(vals[1])})
	}
	return &Plain{U: u, V: v, Queries: queries}, nil
}

// ReadPlainFile reads the combined plaintext file from path.
func ReadPlainFile(path string) (*Plain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plaintext file: %w", err)
	}
	defer f.Close()
	return ReadPlain(f, path)
}

func (s *lineScanner) header(what string, re *regexp.Regexp, like string) ([]int, error) {
	text, err := s.next(what + " header")
	if err != nil {
		return nil, err
	}
	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil, s.errorf("expected header like: %s, got %q", like, text)
	}
	out := make([]int, len(match)-1)
	for i, g := range match[1:] {
		v, err := strconv.Atoi(g)
		if err != nil {
			return nil, s.errorf("bad %s header %q: %v", what, text, err)
		}
		out[i] = v
	}
	return out, nil
}
