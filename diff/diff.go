// Package diff compares reconstructed actual state with replayed expected
// state row by row.
package diff

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mfverify/matrix"
)

// DefaultEpsilon is the absolute tolerance used for floating comparisons.
const DefaultEpsilon = 1e-6

// Tolerance decides whether an actual entry matches its expected value.
// The zero value compares exactly.
type Tolerance struct {
	eps float64
}

// Exact requires integer equality.
func Exact() Tolerance {
	return Tolerance{}
}

// Within accepts |actual - expected| < eps.
func Within(eps float64) Tolerance {
	return Tolerance{eps: eps}
}

// ParseTolerance accepts "exact", "eps" (DefaultEpsilon) or a positive
// number.
func ParseTolerance(s string) (Tolerance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return Exact(), nil
	case "eps", "epsilon":
		return Within(DefaultEpsilon), nil
	}
	eps, err := strconv.ParseFloat(s, 64)
	if err != nil || eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return Tolerance{}, fmt.Errorf("invalid tolerance %q (want exact, eps or a positive number)", s)
	}
	return Within(eps), nil
}

// IsExact reports whether t requires integer equality.
func (t Tolerance) IsExact() bool {
	return t.eps == 0
}

// Match reports whether actual is acceptable for expected.
func (t Tolerance) Match(actual, expected int64) bool {
	if t.eps == 0 {
		return actual == expected
	}
	return math.Abs(float64(actual)-float64(expected)) < t.eps
}

func (t Tolerance) String() string {
	if t.eps == 0 {
		return "exact"
	}
	return "eps=" + strconv.FormatFloat(t.eps, 'g', -1, 64)
}

// RowSet is a set of row indices, such as the rows touched by a replay.
type RowSet interface {
	Has(row int) bool
}

// RowDiff is one mismatching row.
type RowDiff struct {
	Index int
	// Delta is actual - expected for every column, modulo 2^64.
	Delta   []int64
	MaxAbs  uint64
	Touched bool
}

// Result lists the mismatching rows of a comparison.
type Result struct {
	Shape     matrix.Shape
	Tolerance Tolerance
	// Rows are the mismatching rows in ascending index order.
	Rows      []RowDiff
	Touched   []RowDiff
	Untouched []RowDiff
	// MaxAbs is the largest exact |actual - expected| over all entries, including
	// entries within tolerance.
	MaxAbs uint64
}

// OK reports whether no row mismatched.
func (r *Result) OK() bool {
	return len(r.Rows) == 0
}

// Mismatch returns the diff of row and whether it mismatched.
func (r *Result) Mismatch(row int) (RowDiff, bool) {
	for _, d := range r.Rows {
		if d.Index == row {
			return d, true
		}
		if d.Index > row {
			break
		}
	}
	return RowDiff{}, false
}

// Compare diffs actual against expected. touched may be nil, in which case
// every mismatch is classified as untouched. Neither matrix is modified.
func Compare(actual, expected *matrix.Matrix, touched RowSet, tol Tolerance) (*Result, error) {
	if err := matrix.CheckShape("diff", actual, expected); err != nil {
		return nil, err
	}
	res := &Result{Shape: actual.Shape(), Tolerance: tol}
	for i := 0; i < actual.Rows; i++ {
		a, e := actual.Row(i), expected.Row(i)
		delta := make([]int64, len(a))
		var rowMax uint64
		mismatch := false
		for c := range a {
			delta[c] = a[c] - e[c]
			if ad := matrix.AbsDiff(a[c], e[c]); ad > rowMax {
				rowMax = ad
			}
			if !tol.Match(a[c], e[c]) {
				mismatch = true
			}
		}
		if rowMax > res.MaxAbs {
			res.MaxAbs = rowMax
		}
		if !mismatch {
			continue
		}
		rd := RowDiff{
			Index:   i,
			Delta:   delta,
			MaxAbs:  rowMax,
			Touched: touched != nil && touched.Has(i),
		}
		res.Rows = append(res.Rows, rd)
		if rd.Touched {
			res.Touched = append(res.Touched, rd)
		} else {
			res.Untouched = append(res.Untouched, rd)
		}
	}
	return res, nil
}
