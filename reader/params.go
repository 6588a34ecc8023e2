package reader

import (
	"fmt"
	"io"
	"os"
)

// Params is the single-line "m n k q" parameter file written alongside the
// shares.
type Params struct {
	M int
	N int
	K int
	Q int
}

func (p Params) String() string {
	return fmt.Sprintf("m=%d n=%d k=%d q=%d", p.M, p.N, p.K, p.Q)
}

// ReadParams parses the params file.
func ReadParams(r io.Reader, path string) (Params, error) {
	s := newLineScanner(r, path)
	vals, err := s.counts("params", 4)
	if err != nil {
		return Params{}, err
	}
	return Params{M: vals[0], N: vals[1], K: vals[2], Q: vals[3]}, nil
}

// ReadParamsFile reads the params file at path.
func ReadParamsFile(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to open params file: %w", err)
	}
	defer f.Close()
	return ReadParams(f, path)
}
