package utils

import "testing"

func TestNewLogger(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		log, err := NewLogger(verbose)
		if err != nil {
			t.Fatalf("NewLogger(%v): %v", verbose, err)
		}
		if got := log.Core().Enabled(-1); got != verbose {
			t.Errorf("NewLogger(%v): debug enabled = %v", verbose, got)
		}
	}
	if OrNop(nil) == nil {
		t.Errorf("OrNop(nil) returned nil")
	}
}
