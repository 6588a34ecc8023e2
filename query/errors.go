package query

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is matched by every IndexOutOfRangeError via errors.Is.
var ErrIndexOutOfRange = errors.New("query: index out of range")

// IndexOutOfRangeError reports a query index outside the rows of the matrix
// it targets. Target names the indexed matrix ("user" or "item").
type IndexOutOfRangeError struct {
	Seq    int
	Target string
	Index  int
	Limit  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("query %d: %s index %d out of range [0, %d)",
		e.Seq, e.Target, e.Index, e.Limit)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
