package matrix

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is matched by every ShapeMismatchError via errors.Is.
var ErrShapeMismatch = errors.New("matrix: shape mismatch")

// Shape is a (rows, cols) pair.
type Shape struct {
	Rows int
	Cols int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// ShapeMismatchError reports two matrices that were expected to align but
// do not.
type ShapeMismatchError struct {
	Op string
	A  Shape
	B  Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: %v vs %v", e.Op, e.A, e.B)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// CheckShape returns a ShapeMismatchError when a and b differ in shape.
func CheckShape(op string, a, b *Matrix) error {
	if a.SameShape(b) {
		return nil
	}
	return &ShapeMismatchError{Op: op, A: a.Shape(), B: b.Shape()}
}
