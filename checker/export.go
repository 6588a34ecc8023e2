package checker

import (
	"encoding/json"
	"fmt"
	"os"
)

// RowReport is the serializable form of a mismatching row.
type RowReport struct {
	Row     int     `json:"row"`
	Touched bool    `json:"touched"`
	MaxAbs  uint64  `json:"max_abs"`
	Diff    []int64 `json:"diff"`
}

// QueryReport is the serializable form of a Verdict.
type QueryReport struct {
	Query    int     `json:"query"`
	Row      int     `json:"row"`
	Pass     bool    `json:"pass"`
	Expected []int64 `json:"expected,omitempty"`
	Actual   []int64 `json:"actual,omitempty"`
}

// ModeReport is the serializable form of an Outcome.
type ModeReport struct {
	Mode       string        `json:"mode"`
	Pass       bool          `json:"pass"`
	Tolerance  string        `json:"tolerance"`
	Normalized bool          `json:"normalized"`
	Touched    []int         `json:"touched"`
	MaxAbs     uint64        `json:"max_abs"`
	Queries    []QueryReport `json:"queries"`
	Mismatches []RowReport   `json:"mismatches"`
}

// RunReport is the machine-readable result of a run.
type RunReport struct {
	Version  string       `json:"version"`
	ExitCode int          `json:"exit_code"`
	Modes    []ModeReport `json:"modes"`
}

// NewRunReport converts outcomes into a RunReport. Rows of passing queries
// are omitted to keep the report small.
func NewRunReport(outcomes []*Outcome) *RunReport {
	rep := &RunReport{Version: "1.0", ExitCode: ExitCode(outcomes, nil)}
	for _, o := range outcomes {
		mr := ModeReport{
			Mode:       o.Mode.String(),
			Pass:       o.Passed(),
			Tolerance:  o.Tolerance.String(),
			Normalized: o.Normalized,
			Touched:    o.Touched.Sorted(),
			MaxAbs:     o.Diff.MaxAbs,
			Queries:    []QueryReport{},
			Mismatches: []RowReport{},
		}
		for _, v := range o.Verdicts {
			qr := QueryReport{Query: v.Seq, Row: v.Row, Pass: v.Pass}
			if !v.Pass {
				qr.Expected = v.Final
				qr.Actual = v.Actual
			}
			mr.Queries = append(mr.Queries, qr)
		}
		for _, d := range o.Diff.Rows {
			mr.Mismatches = append(mr.Mismatches, RowReport{
				Row:     d.Index,
				Touched: d.Touched,
				MaxAbs:  d.MaxAbs,
				Diff:    d.Delta,
			})
		}
		rep.Modes = append(rep.Modes, mr)
	}
	return rep
}

// SaveReport writes the run report to a JSON file.
func SaveReport(filepath string, rep *RunReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadReport reads a run report written by SaveReport.
func LoadReport(filepath string) (*RunReport, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var rep RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}
