package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/markkurossi/tabulate"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Stage names a step of a verification run.
type Stage string

const (
	StageLoad        Stage = "Load"
	StageReconstruct Stage = "Reconstruct"
	StageReplay      Stage = "Replay"
	StageDiff        Stage = "Diff"
)

// TimingStats accumulates the time spent in each stage of a run.
type TimingStats struct {
	TotalTime time.Duration
	stages    []Stage
	durations map[Stage]time.Duration
}

// NewTimingStats returns empty statistics.
func NewTimingStats() *TimingStats {
	return &TimingStats{durations: make(map[Stage]time.Duration)}
}

// Add accounts d to stage. A nil receiver ignores the sample.
func (s *TimingStats) Add(stage Stage, d time.Duration) {
	if s == nil {
		return
	}
	if _, ok := s.durations[stage]; !ok {
		s.stages = append(s.stages, stage)
	}
	s.durations[stage] += d
	s.TotalTime += d
}

// Track starts timing stage; call the returned function when it is done.
func (s *TimingStats) Track(stage Stage) func() {
	start := time.Now()
	return func() {
		s.Add(stage, time.Since(start))
	}
}

// Duration returns the time accounted to stage.
func (s *TimingStats) Duration(stage Stage) time.Duration {
	if s == nil {
		return 0
	}
	return s.durations[stage]
}

// PrintTimingStats prints the per-stage breakdown.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats) {
	if !Verbose || stats == nil || len(stats.stages) == 0 {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Stage").SetAlign(tabulate.ML)
	tab.Header("Time (µs)").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	for _, stage := range stats.stages {
		d := stats.durations[stage]
		row := tab.Row()
		row.Column(string(stage))
		row.Column(fmt.Sprintf("%.1f", DurationUS(d)))
		row.Column(fmt.Sprintf("%.1f%%", percent(d, stats.TotalTime)))
	}
	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%.1f", DurationUS(stats.TotalTime))).SetFormat(tabulate.FmtBold)
	row.Column("")
	tab.Print(Output)
}

func percent(d, total time.Duration) float64 {
	if total == 0 {
		return 0
	}
	return float64(d) / float64(total) * 100
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
