// Package reader parses and writes the line-oriented text files exchanged
// with the share protocol: share matrices, query logs, the combined
// plaintext ground truth and the params file.
package reader

import (
	"fmt"
	"io"
	"os"

	"mfverify/matrix"
)

// ReadMatrix parses a share matrix: a "rows cols" header followed by rows
// lines of cols integers. Blank lines are skipped. Content after the
// declared rows is ignored.
func ReadMatrix(r io.Reader, path string) (*matrix.Matrix, error) {
	s := newLineScanner(r, path)
	dims, err := s.counts("matrix", 2)
	if err != nil {
		return nil, err
	}
	return readRows(s, "matrix", dims[0], dims[1])
}

// readRows reads rows lines of cols integers. Storage grows with the rows
// actually read, so a header larger than its file ends in a FormatError.
func readRows(s *lineScanner, what string, rows, cols int) (*matrix.Matrix, error) {
	if err := s.checkShape(what, rows, cols); err != nil {
		return nil, err
	}
	var data []int64
	for i := 0; i < rows; i++ {
		vals, err := s.ints(fmt.Sprintf("%s row %d of %d", what, i+1, rows), cols)
		if err != nil {
			return nil, err
		}
		data = append(data, vals...)
	}
	if data == nil {
		data = []int64{}
	}
	return &matrix.Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

// ReadMatrixFile reads a share matrix from path.
func ReadMatrixFile(path string) (*matrix.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix file: %w", err)
	}
	defer f.Close()
	return ReadMatrix(f, path)
}
