// Package matrix holds the integer profile tables exchanged between the
// parties: share matrices, reconstructed plaintext and replayed state.
package matrix

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major table of signed integers backed by a flat []int64.
type Matrix struct {
	Rows int
	Cols int
	Data []int64
}

// New allocates a zeroed rows×cols Matrix.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix.New: negative shape %dx%d", rows, cols))
	}
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]int64, rows*cols),
	}
}

// FromRows copies a slice of rows into a new Matrix. All rows must have the
// same length.
func FromRows(rows [][]int64) (*Matrix, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	out := New(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, &ShapeMismatchError{
				Op: "FromRows",
				A:  Shape{Rows: 1, Cols: cols},
				B:  Shape{Rows: 1, Cols: len(row)},
			}
		}
		copy(out.Data[i*cols:(i+1)*cols], row)
	}
	return out, nil
}

// Shape returns the (rows, cols) pair of m.
func (m *Matrix) Shape() Shape {
	return Shape{Rows: m.Rows, Cols: m.Cols}
}

// SameShape reports whether m and o have identical row and column counts.
func (m *Matrix) SameShape(o *Matrix) bool {
	return m.Rows == o.Rows && m.Cols == o.Cols
}

// Clone returns a deep copy of m. Mutating the copy never affects m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		Rows: m.Rows,
		Cols: m.Cols,
		Data: append([]int64(nil), m.Data...),
	}
}

// Row returns row i as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []int64 {
	if i < 0 || i >= m.Rows {
		panic(fmt.Sprintf("Row: index %d out of bounds (rows: %d)", i, m.Rows))
	}
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// RowCopy returns a copy of row i.
func (m *Matrix) RowCopy(i int) []int64 {
	return append([]int64(nil), m.Row(i)...)
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) int64 {
	m.check("At", i, j)
	return m.Data[i*m.Cols+j]
}

// Set sets the element at row i, column j.
func (m *Matrix) Set(i, j int, v int64) {
	m.check("Set", i, j)
	m.Data[i*m.Cols+j] = v
}

func (m *Matrix) check(op string, i, j int) {
	if i < 0 || i >= m.Rows {
		panic(fmt.Sprintf("%s: row %d out of bounds (shape: %v)", op, i, m.Shape()))
	}
	if j < 0 || j >= m.Cols {
		panic(fmt.Sprintf("%s: column %d out of bounds (shape: %v)", op, j, m.Shape()))
	}
}

// Equal reports whether m and o have the same shape and elements.
func (m *Matrix) Equal(o *Matrix) bool {
	if !m.SameShape(o) {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Dense converts m to a gonum dense matrix. Values beyond 2^53 lose
// precision; use it for rendering, not for comparisons.
func (m *Matrix) Dense() *mat.Dense {
	if m.Rows == 0 || m.Cols == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.Rows, m.Cols, data)
}

// Format renders m the way gonum prints matrices, with the given prefix on
// continuation lines.
func (m *Matrix) Format(prefix string) string {
	if m.Rows == 0 || m.Cols == 0 {
		return "[]"
	}
	return fmt.Sprintf("%v", mat.Formatted(m.Dense(), mat.Prefix(prefix), mat.Squeeze()))
}

func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(FormatRow(m.Row(i)))
	}
	b.WriteByte(']')
	return b.String()
}

// FormatRow renders a vector as "[a b c]".
func FormatRow(row []int64) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
