package checker

import (
	"fmt"
	"io"
	"strconv"

	"github.com/markkurossi/tabulate"

	"mfverify/diff"
	"mfverify/matrix"
)

// Reporter renders outcomes for humans.
type Reporter struct {
	W io.Writer
}

// Outcome prints the per-query verdicts and the mismatch detail of o.
func (r *Reporter) Outcome(o *Outcome) {
	fmt.Fprintf(r.W, "\n=== Checking %s: %s profile updates ===\n", o.Mode, o.Mode.Matrix())
	if o.Normalized {
		fmt.Fprintln(r.W, "  (query indices were shifted from 1-based to 0-based)")
	}
	subject := o.Mode.Subject()
	for _, v := range o.Verdicts {
		if v.Pass {
			fmt.Fprintf(r.W, "  Query %d (%s %d): PASS\n", v.Seq, subject, v.Row)
			continue
		}
		fmt.Fprintf(r.W, "  Query %d (%s %d): FAIL\n", v.Seq, subject, v.Row)
		fmt.Fprintf(r.W, "    Expected: %s\n", matrix.FormatRow(v.Final))
		fmt.Fprintf(r.W, "    Got:      %s\n", matrix.FormatRow(v.Actual))
		if !equalRows(v.Expected, v.Final) {
			fmt.Fprintf(r.W, "    (row updated again later; after this query: %s)\n",
				matrix.FormatRow(v.Expected))
		}
	}
	r.Diff(o.Diff, o.Touched.Sorted())

	failed := len(o.Failed())
	switch {
	case o.Passed():
		fmt.Fprintf(r.W, "\n%s PASSED: all %d updates correct\n", o.Mode, len(o.Verdicts))
	case failed == 0:
		fmt.Fprintf(r.W, "\n%s FAILED: %d untouched rows changed\n", o.Mode, len(o.Diff.Untouched))
	default:
		fmt.Fprintf(r.W, "\n%s FAILED: %d errors\n", o.Mode, failed)
	}
}

// Diff prints the mismatching rows of d, split into touched and untouched
// rows, followed by the maximum absolute difference.
func (r *Reporter) Diff(d *diff.Result, touched []int) {
	fmt.Fprintf(r.W, "Touched rows: %v\n", touched)
	if d.OK() {
		fmt.Fprintf(r.W, "OK: actual matches expected (%s).\n", d.Tolerance)
	} else {
		fmt.Fprintf(r.W, "Mismatch rows: %d\n", len(d.Rows))
		r.rows("MISMATCH (touched rows)", d.Touched)
		r.rows("MISMATCH (untouched rows)", d.Untouched)
	}
	fmt.Fprintf(r.W, "Max |diff| over all entries: %d\n", d.MaxAbs)
}

func (r *Reporter) rows(title string, rows []diff.RowDiff) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(r.W, "\n%s:\n", title)
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Row").SetAlign(tabulate.MR)
	tab.Header("Max |diff|").SetAlign(tabulate.MR)
	tab.Header("Diff").SetAlign(tabulate.ML)
	for _, d := range rows {
		row := tab.Row()
		row.Column(strconv.Itoa(d.Index))
		row.Column(strconv.FormatUint(d.MaxAbs, 10))
		row.Column(matrix.FormatRow(d.Delta))
	}
	tab.Print(r.W)
}

// Matrices prints the reconstructed and the expected matrix of o.
func (r *Reporter) Matrices(o *Outcome) {
	fmt.Fprintf(r.W, "Reconstructed %s (p0 + p1):\n%s\n", o.Mode.Matrix(), o.Actual.Format(""))
	fmt.Fprintf(r.W, "Updated %s (expected):\n%s\n", o.Mode.Matrix(), o.Expected.Format(""))
}

// Summary prints one line per outcome and the overall verdict.
func (r *Reporter) Summary(outcomes []*Outcome) {
	fmt.Fprintln(r.W, "\nSUMMARY")
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Mode").SetAlign(tabulate.ML)
	tab.Header("Queries").SetAlign(tabulate.MR)
	tab.Header("Failed").SetAlign(tabulate.MR)
	tab.Header("Mismatch rows").SetAlign(tabulate.MR)
	tab.Header("Max |diff|").SetAlign(tabulate.MR)
	tab.Header("Verdict").SetAlign(tabulate.MC)
	for _, o := range outcomes {
		row := tab.Row()
		row.Column(o.Mode.String())
		row.Column(strconv.Itoa(len(o.Verdicts)))
		row.Column(strconv.Itoa(len(o.Failed())))
		row.Column(strconv.Itoa(len(o.Diff.Rows)))
		row.Column(strconv.FormatUint(o.Diff.MaxAbs, 10))
		if o.Passed() {
			row.Column("PASS")
		} else {
			row.Column("FAIL").SetFormat(tabulate.FmtBold)
		}
	}
	tab.Print(r.W)

	if ExitCode(outcomes, nil) == ExitPass {
		fmt.Fprintln(r.W, "\nALL CHECKS PASSED")
	} else {
		fmt.Fprintln(r.W, "\nSOME CHECKS FAILED")
	}
}

func equalRows(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
