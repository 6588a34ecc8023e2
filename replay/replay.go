// Package replay recomputes expected profile matrices by applying the
// factorization update rule
//
//	row <- row + c * (1 - <row, c>)
//
// to every query in file order, where c is the counterpart vector.
package replay

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"mfverify/matrix"
	"mfverify/query"
)

// ErrMissingVector is returned by Embedded for a query without a vector.
var ErrMissingVector = errors.New("replay: query has no embedded vector")

// Key selects which index of a record addresses a matrix row.
type Key int

const (
	ByUser Key = iota
	ByItem
)

// Index returns the row index rec selects under k.
func (k Key) Index(rec query.Record) int {
	if k == ByItem {
		return rec.Item
	}
	return rec.User
}

func (k Key) String() string {
	if k == ByItem {
		return "item"
	}
	return "user"
}

// Counterpart supplies the vector a record's subject row is updated with.
type Counterpart interface {
	Vector(rec query.Record) ([]int64, error)
}

// Embedded takes the counterpart from the vector carried by the query.
type Embedded struct{}

func (Embedded) Vector(rec query.Record) ([]int64, error) {
	if rec.Vector == nil {
		return nil, fmt.Errorf("query %d: %w", rec.Seq, ErrMissingVector)
	}
	return rec.Vector, nil
}

// Lookup takes the counterpart from a row of a fixed matrix.
type Lookup struct {
	M   *matrix.Matrix
	Key Key
}

func (l Lookup) Vector(rec query.Record) ([]int64, error) {
	i := l.Key.Index(rec)
	if i < 0 || i >= l.M.Rows {
		return nil, &query.IndexOutOfRangeError{
			Seq:    rec.Seq,
			Target: l.Key.String(),
			Index:  i,
			Limit:  l.M.Rows,
		}
	}
	return l.M.Row(i), nil
}

// Touched is the set of rows updated during a replay, kept in first-touch
// order.
type Touched struct {
	order []int
	set   map[int]bool
}

func newTouched() *Touched {
	return &Touched{set: make(map[int]bool)}
}

// NewTouched builds a set from rows.
func NewTouched(rows ...int) *Touched {
	t := newTouched()
	for _, r := range rows {
		t.add(r)
	}
	return t
}

func (t *Touched) add(row int) {
	if !t.set[row] {
		t.set[row] = true
		t.order = append(t.order, row)
	}
}

// Has reports whether row was updated. A nil set is empty.
func (t *Touched) Has(row int) bool {
	return t != nil && t.set[row]
}

// Len returns the number of distinct rows.
func (t *Touched) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Sorted returns the rows in ascending order.
func (t *Touched) Sorted() []int {
	if t == nil {
		return nil
	}
	out := append([]int(nil), t.order...)
	sort.Ints(out)
	return out
}

// Step records the effect of one query on its subject row.
type Step struct {
	Seq    int
	Row    int
	Dot    int64
	Factor int64
	Before []int64
	After  []int64
}

// Result is the outcome of a replay on a private working copy.
type Result struct {
	Expected *matrix.Matrix
	Touched  *Touched
	Steps    []Step
}

// Replayer applies update records to the rows selected by Subject using the
// vectors supplied by Counterpart.
type Replayer struct {
	Subject     Key
	Counterpart Counterpart
	// Arith defaults to matrix.Wrap.
	Arith matrix.Arith
	Log   *zap.Logger
}

// Expected clones initial and replays recs on the clone. initial is never
// modified.
func (r *Replayer) Expected(initial *matrix.Matrix, recs []query.Record) (*Result, error) {
	work := initial.Clone()
	res := &Result{Expected: work, Touched: newTouched()}
	if err := r.apply(work, recs, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Apply replays recs on work in place. The caller owns work and must not
// pass a matrix that is used elsewhere as reference state.
func (r *Replayer) Apply(work *matrix.Matrix, recs []query.Record) (*Touched, error) {
	res := &Result{Expected: work, Touched: newTouched()}
	if err := r.apply(work, recs, res); err != nil {
		return nil, err
	}
	return res.Touched, nil
}

func (r *Replayer) apply(work *matrix.Matrix, recs []query.Record, res *Result) error {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, rec := range recs {
		i := r.Subject.Index(rec)
		if i < 0 || i >= work.Rows {
			return &query.IndexOutOfRangeError{
				Seq:    rec.Seq,
				Target: r.Subject.String(),
				Index:  i,
				Limit:  work.Rows,
			}
		}
		c, err := r.Counterpart.Vector(rec)
		if err != nil {
			return err
		}
		row := work.Row(i)
		before := append([]int64(nil), row...)
		dot, factor, err := update(r.Arith, row, c)
		if err != nil {
			return fmt.Errorf("query %d (%s %d): %w", rec.Seq, r.Subject, i, err)
		}
		res.Touched.add(i)
		res.Steps = append(res.Steps, Step{
			Seq:    rec.Seq,
			Row:    i,
			Dot:    dot,
			Factor: factor,
			Before: before,
			After:  append([]int64(nil), row...),
		})
		log.Debug("Replayed query",
			zap.Int("query", rec.Seq),
			zap.String("subject", r.Subject.String()),
			zap.Int("row", i),
			zap.Int64("dot", dot),
			zap.Int64("factor", factor))
	}
	return nil
}

// update applies row += c * (1 - <row, c>) in place. row is left untouched
// when an error is returned.
func update(ar matrix.Arith, row, c []int64) (dot, factor int64, err error) {
	if dot, err = ar.Dot(row, c); err != nil {
		return 0, 0, err
	}
	if factor, err = ar.Sub(1, dot); err != nil {
		return 0, 0, err
	}
	next := make([]int64, len(row))
	for d := range row {
		p, err := ar.Mul(c[d], factor)
		if err != nil {
			return 0, 0, err
		}
		if next[d], err = ar.Add(row[d], p); err != nil {
			return 0, 0, err
		}
	}
	copy(row, next)
	return dot, factor, nil
}
