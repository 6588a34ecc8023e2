package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"mfverify/matrix"
	"mfverify/query"
)

// WriteMatrix writes m in the share matrix format.
func WriteMatrix(w io.Writer, m *matrix.Matrix) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		writeInts(bw, m.Row(i))
	}
	return bw.Flush()
}

// WriteQueryLog writes queries in the share-protocol query format. Every
// query must carry exactly k vector values.
func WriteQueryLog(w io.Writer, k int, queries []query.Raw) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(queries), k)
	for i, q := range queries {
		if len(q.Vector) != k {
			return fmt.Errorf("query %d: vector has %d values, want %d", i, len(q.Vector), k)
		}
		row := append([]int64{int64(q.User), int64(q.Item)}, q.Vector...)
		writeInts(bw, row)
	}
	return bw.Flush()
}

// WritePlain writes the combined plaintext file.
func WritePlain(w io.Writer, p *Plain) error {
	if p.U.Cols != p.V.Cols {
		return &matrix.ShapeMismatchError{Op: "WritePlain", A: p.U.Shape(), B: p.V.Shape()}
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "U (m=%d, k=%d)\n", p.U.Rows, p.U.Cols)
	for i := 0; i < p.U.Rows; i++ {
		writeInts(bw, p.U.Row(i))
	}
	fmt.Fprintf(bw, "V (n=%d, k=%d)\n", p.V.Rows, p.V.Cols)
	for i := 0; i < p.V.Rows; i++ {
		writeInts(bw, p.V.Row(i))
	}
	fmt.Fprintf(bw, "queries (q=%d)\n", len(p.Queries))
	for _, q := range p.Queries {
		fmt.Fprintf(bw, "%d %d\n", q.User, q.Item)
	}
	return bw.Flush()
}

// WriteParams writes the "m n k q" params line.
func WriteParams(w io.Writer, p Params) error {
	_, err := fmt.Fprintf(w, "%d %d %d %d\n", p.M, p.N, p.K, p.Q)
	return err
}

func writeInts(bw *bufio.Writer, vals []int64) {
	for i, v := range vals {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.FormatInt(v, 10))
	}
	bw.WriteByte('\n')
}

// WriteFile creates path (and its parent directories) and fills it with
// write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
