package checker

import (
	"fmt"
	"strings"

	"mfverify/replay"
)

// Mode selects which profile matrix is verified.
type Mode int

const (
	// SubjectUpdate verifies user profiles: u_i is updated with v_j, taken
	// from the query's embedded vector or from V.
	SubjectUpdate Mode = iota
	// CounterpartUpdate verifies item profiles: v_j is updated with u_i
	// from the initial U.
	CounterpartUpdate
)

// Modes lists every mode in run order.
var Modes = []Mode{SubjectUpdate, CounterpartUpdate}

// ParseMode accepts "user"/"subject" and "item"/"counterpart", optionally
// suffixed with "-update".
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-update") {
	case "user", "subject", "u":
		return SubjectUpdate, nil
	case "item", "counterpart", "v":
		return CounterpartUpdate, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want user or item)", s)
}

func (m Mode) String() string {
	if m == CounterpartUpdate {
		return "item-update"
	}
	return "user-update"
}

// Subject returns the record index that addresses the updated row.
func (m Mode) Subject() replay.Key {
	if m == CounterpartUpdate {
		return replay.ByItem
	}
	return replay.ByUser
}

// Matrix names the verified matrix.
func (m Mode) Matrix() string {
	if m == CounterpartUpdate {
		return "V"
	}
	return "U"
}
