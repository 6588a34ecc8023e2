// Package query defines update queries and the index-base normalization
// applied to them before replay.
package query

import (
	"fmt"
	"strings"
)

// Raw is a query as read from disk. Vector is set only for query logs that
// embed the counterpart item vector.
type Raw struct {
	User   int
	Item   int
	Vector []int64
}

// Record is a normalized, 0-based query whose indices have been checked
// against the matrices they address.
type Record struct {
	// Seq is the position of the query in the input file.
	Seq    int
	User   int
	Item   int
	Vector []int64
}

// Base selects how on-disk indices are interpreted.
type Base int

const (
	// Auto applies the boundary/all-positive heuristic.
	Auto Base = iota
	// Zero treats indices as 0-based.
	Zero
	// One treats indices as 1-based.
	One
)

// ParseBase parses "auto", "zero"/"0" or "one"/"1".
func ParseBase(s string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "zero", "0":
		return Zero, nil
	case "one", "1":
		return One, nil
	}
	return Auto, fmt.Errorf("unknown index base %q (want auto, zero or one)", s)
}

func (b Base) String() string {
	switch b {
	case Zero:
		return "zero"
	case One:
		return "one"
	default:
		return "auto"
	}
}

// OneBased reports whether the Auto heuristic classifies the query set as
// 1-based: some user index equals users, some item index equals items, or
// every user index is at least 1. An empty set is 0-based.
func OneBased(raws []Raw, users, items int) bool {
	if len(raws) == 0 {
		return false
	}
	maxUser, maxItem := raws[0].User, raws[0].Item
	allPositive := true
	for _, q := range raws {
		if q.User > maxUser {
			maxUser = q.User
		}
		if q.Item > maxItem {
			maxItem = q.Item
		}
		if q.User < 1 {
			allPositive = false
		}
	}
	return maxUser == users || maxItem == items || allPositive
}

// Normalize converts raws to 0-based records. It reports whether the
// indices were shifted down by one. Records are not bounds checked; see
// Validate.
func Normalize(raws []Raw, users, items int, base Base) ([]Record, bool) {
	shift := false
	switch base {
	case One:
		shift = true
	case Auto:
		shift = OneBased(raws, users, items)
	}
	out := make([]Record, len(raws))
	for i, q := range raws {
		rec := Record{Seq: i, User: q.User, Item: q.Item}
		if q.Vector != nil {
			rec.Vector = append([]int64(nil), q.Vector...)
		}
		if shift {
			rec.User--
			rec.Item--
		}
		out[i] = rec
	}
	return out, shift
}

// Validate checks that every record addresses a user row in [0, users) and
// an item row in [0, items). A negative bound disables that check.
func Validate(recs []Record, users, items int) error {
	for _, r := range recs {
		if users >= 0 && (r.User < 0 || r.User >= users) {
			return &IndexOutOfRangeError{Seq: r.Seq, Target: "user", Index: r.User, Limit: users}
		}
		if items >= 0 && (r.Item < 0 || r.Item >= items) {
			return &IndexOutOfRangeError{Seq: r.Seq, Target: "item", Index: r.Item, Limit: items}
		}
	}
	return nil
}
