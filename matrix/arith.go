package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrOverflow signals that an int64 sum or product left the representable
// range under Checked arithmetic.
var ErrOverflow = errors.New("matrix: int64 overflow")

// Arith selects how entries combine.
type Arith int

const (
	// Wrap computes in the ring of integers modulo 2^64, the arithmetic of
	// the share protocol itself. It never fails.
	Wrap Arith = iota
	// Checked fails with ErrOverflow when a result leaves the int64 range.
	Checked
)

// ParseArith parses "wrap" or "checked".
func ParseArith(s string) (Arith, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return Wrap, nil
	case "checked":
		return Checked, nil
	}
	return Wrap, fmt.Errorf("unknown arithmetic %q (want wrap or checked)", s)
}

func (a Arith) String() string {
	if a == Checked {
		return "checked"
	}
	return "wrap"
}

// Add returns x+y.
func (a Arith) Add(x, y int64) (int64, error) {
	if a != Checked {
		return x + y, nil
	}
	if v, ok := AddInt64(x, y); ok {
		return v, nil
	}
	return 0, ErrOverflow
}

// Sub returns x-y.
func (a Arith) Sub(x, y int64) (int64, error) {
	if a != Checked {
		return x - y, nil
	}
	if v, ok := SubInt64(x, y); ok {
		return v, nil
	}
	return 0, ErrOverflow
}

// Mul returns x*y.
func (a Arith) Mul(x, y int64) (int64, error) {
	if a != Checked {
		return x * y, nil
	}
	if v, ok := MulInt64(x, y); ok {
		return v, nil
	}
	return 0, ErrOverflow
}

// Dot returns the inner product of x and y, which must have equal length.
func (a Arith) Dot(x, y []int64) (int64, error) {
	if len(x) != len(y) {
		return 0, &ShapeMismatchError{
			Op: "Dot",
			A:  Shape{Rows: 1, Cols: len(x)},
			B:  Shape{Rows: 1, Cols: len(y)},
		}
	}
	var sum int64
	for i := range x {
		p, err := a.Mul(x[i], y[i])
		if err != nil {
			return 0, err
		}
		if sum, err = a.Add(sum, p); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// AbsDiff returns |x-y| exactly. The distance between two int64 values
// always fits in a uint64.
func AbsDiff(x, y int64) uint64 {
	if x >= y {
		return uint64(x) - uint64(y)
	}
	return uint64(y) - uint64(x)
}

// AddInt64 returns a+b and whether the sum is exact.
func AddInt64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) == (b > 0) {
		return c, true
	}
	return c, false
}

// SubInt64 returns a-b and whether the difference is exact.
func SubInt64(a, b int64) (int64, bool) {
	c := a - b
	if (c < a) == (b > 0) {
		return c, true
	}
	return c, false
}

// MulInt64 returns a*b and whether the product is exact.
func MulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return c, false
	}
	return c, c/b == a
}
