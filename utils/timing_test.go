package utils

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

func TestTimingStatsAccumulates(t *testing.T) {
	s := NewTimingStats()
	s.Add(StageLoad, 2*time.Millisecond)
	s.Add(StageReplay, 3*time.Millisecond)
	s.Add(StageLoad, time.Millisecond)

	if got := s.Duration(StageLoad); got != 3*time.Millisecond {
		t.Errorf("Load = %v, want 3ms", got)
	}
	if s.TotalTime != 6*time.Millisecond {
		t.Errorf("TotalTime = %v, want 6ms", s.TotalTime)
	}

	var nilStats *TimingStats
	nilStats.Add(StageDiff, time.Second)
	if nilStats.Duration(StageDiff) != 0 {
		t.Errorf("nil stats recorded a duration")
	}
}

func TestTrack(t *testing.T) {
	s := NewTimingStats()
	done := s.Track(StageDiff)
	done()
	if len(s.stages) != 1 || s.stages[0] != StageDiff {
		t.Fatalf("stages = %v, want [Diff]", s.stages)
	}
}

func TestPrintTimingStatsRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldVerbose := Output, Verbose
	defer func() { Output, Verbose = oldOut, oldVerbose }()
	Output = &buf

	s := NewTimingStats()
	s.Add(StageReconstruct, 1500*time.Microsecond)

	Verbose = false
	PrintTimingStats(s)
	if buf.Len() != 0 {
		t.Fatalf("printed while not verbose: %q", buf.String())
	}

	Verbose = true
	PrintTimingStats(s)
	if !strings.Contains(buf.String(), "Reconstruct") {
		t.Errorf("output lacks stage name: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "1500.0") {
		t.Errorf("output lacks the duration in µs: %q", buf.String())
	}
}
