// Package checker verifies the output of the secret-shared factorization
// update protocol. It reconstructs the actual profiles, replays the query
// log over a copy of the initial profiles and diffs the two.
package checker

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mfverify/diff"
	"mfverify/matrix"
	"mfverify/query"
	"mfverify/reader"
	"mfverify/replay"
	"mfverify/utils"
)

// Exit codes returned by the commands.
const (
	ExitPass  = 0
	ExitFail  = 1
	ExitFatal = 2
)

// Verdict is the result of one query.
type Verdict struct {
	Seq  int
	Row  int
	Pass bool
	// Expected is the replayed row right after this query.
	Expected []int64
	// Final is the replayed row after the whole log; Actual is compared
	// against it.
	Final  []int64
	Actual []int64
}

// Outcome is the result of verifying one mode.
type Outcome struct {
	Mode       Mode
	Tolerance  diff.Tolerance
	Normalized bool
	Verdicts   []Verdict
	Diff       *diff.Result
	Touched    *replay.Touched
	Expected   *matrix.Matrix
	Actual     *matrix.Matrix
}

// Failed returns the failing queries.
func (o *Outcome) Failed() []Verdict {
	var out []Verdict
	for _, v := range o.Verdicts {
		if !v.Pass {
			out = append(out, v)
		}
	}
	return out
}

// Passed reports whether every query passed and no untouched row changed.
func (o *Outcome) Passed() bool {
	return len(o.Failed()) == 0 && len(o.Diff.Untouched) == 0
}

// Checker runs verification modes over a loaded State.
type Checker struct {
	Log       *zap.Logger
	Stats     *utils.TimingStats
	Base      query.Base
	Tolerance diff.Tolerance
	Arith     matrix.Arith
}

// Verify checks mode against st. Mismatches are reported in the Outcome;
// an error means the inputs could not be compared at all.
func (c *Checker) Verify(st *State, mode Mode) (*Outcome, error) {
	log := utils.OrNop(c.Log).With(zap.Stringer("mode", mode))

	initial, actual := st.Initial(mode), st.Final(mode)
	if initial == nil || actual == nil {
		return nil, fmt.Errorf("%s: no %s matrices loaded", mode, mode.Matrix())
	}

	ql := &reader.QueryLog{K: st.K, Queries: st.Queries}
	recs, shifted, err := ql.Updates(st.InitialU.Rows, st.InitialV.Rows, c.Base)
	if shifted {
		log.Warn("Query indices look 1-based; shifted to 0-based",
			zap.Int("queries", len(st.Queries)),
			zap.Stringer("base", c.Base))
	}
	if err != nil {
		return nil, err
	}

	r := &replay.Replayer{
		Subject:     mode.Subject(),
		Counterpart: c.counterpart(st, mode),
		Arith:       c.Arith,
		Log:         log,
	}
	done := c.Stats.Track(utils.StageReplay)
	res, err := r.Expected(initial, recs)
	done()
	if err != nil {
		return nil, err
	}

	done = c.Stats.Track(utils.StageDiff)
	d, err := diff.Compare(actual, res.Expected, res.Touched, c.Tolerance)
	done()
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Mode:       mode,
		Tolerance:  c.Tolerance,
		Normalized: shifted,
		Diff:       d,
		Touched:    res.Touched,
		Expected:   res.Expected,
		Actual:     actual,
	}
	for _, step := range res.Steps {
		_, bad := d.Mismatch(step.Row)
		out.Verdicts = append(out.Verdicts, Verdict{
			Seq:      step.Seq,
			Row:      step.Row,
			Pass:     !bad,
			Expected: step.After,
			Final:    res.Expected.RowCopy(step.Row),
			Actual:   actual.RowCopy(step.Row),
		})
	}
	log.Info("Verified",
		zap.Int("queries", len(out.Verdicts)),
		zap.Int("failed", len(out.Failed())),
		zap.Int("mismatch_rows", len(d.Rows)),
		zap.Uint64("max_abs_diff", d.MaxAbs))
	return out, nil
}

// counterpart picks the vector source for mode. User updates use the
// vectors embedded in the query log when present and fall back to rows of
// the initial V; item updates always read rows of the initial U.
func (c *Checker) counterpart(st *State, mode Mode) replay.Counterpart {
	if mode == CounterpartUpdate {
		return replay.Lookup{M: st.InitialU, Key: replay.ByUser}
	}
	if st.K > 0 {
		return replay.Embedded{}
	}
	return replay.Lookup{M: st.InitialV, Key: replay.ByItem}
}

// Run verifies every mode in order. It stops at the first fatal error.
func (c *Checker) Run(st *State, modes ...Mode) ([]*Outcome, error) {
	var outcomes []*Outcome
	for _, mode := range modes {
		o, err := c.Verify(st, mode)
		if err != nil {
			return outcomes, fmt.Errorf("%s: %w", mode, err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// ExitCode maps a run to the process exit status: ExitFatal when err is
// set, ExitFail when any outcome failed, ExitPass otherwise.
func ExitCode(outcomes []*Outcome, err error) int {
	if err != nil {
		return ExitFatal
	}
	for _, o := range outcomes {
		if !o.Passed() {
			return ExitFail
		}
	}
	return ExitPass
}

// IsFatal reports whether err belongs to the input error classes that abort
// a run: malformed files, misaligned shapes, out-of-range indices, missing
// query vectors and overflow under checked arithmetic.
func IsFatal(err error) bool {
	return errors.Is(err, reader.ErrFormat) ||
		errors.Is(err, matrix.ErrShapeMismatch) ||
		errors.Is(err, query.ErrIndexOutOfRange) ||
		errors.Is(err, matrix.ErrOverflow) ||
		errors.Is(err, replay.ErrMissingVector)
}
