package reader

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mfverify/query"
)

// QueryLog is the share-protocol query file: each query carries the user and
// item index followed by K item-vector values. K is 0 for index-only logs.
type QueryLog struct {
	K       int
	Queries []query.Raw
}

// ReadQueryLog parses a "q [k]" header followed by q lines of 2+k integers.
// Query order is preserved.
func ReadQueryLog(r io.Reader, path string) (*QueryLog, error) {
	s := newLineScanner(r, path)
	head, err := s.next("query header")
	if err != nil {
		return nil, err
	}
	toks := strings.Fields(head)
	if len(toks) < 1 || len(toks) > 2 {
		return nil, s.errorf("bad query header %q: expected \"q\" or \"q k\"", head)
	}
	nums := make([]int, len(toks))
	for i, tok := range toks {
		v, err := strconv.Atoi(tok)
		if err != nil || v < 0 {
			return nil, s.errorf("bad query header %q: %q is not a count", head, tok)
		}
		nums[i] = v
	}
	ql := &QueryLog{}
	if len(nums) == 2 {
		ql.K = nums[1]
	}
	if err := s.checkShape("query log", nums[0], ql.K); err != nil {
		return nil, err
	}
	for i := 0; i < nums[0]; i++ {
		vals, err := s.ints(fmt.Sprintf("query %d of %d", i+1, nums[0]), 2+ql.K)
		if err != nil {
			return nil, err
		}
		q := query.Raw{User: int(vals[0]), Item: int(vals[1])}
		if ql.K > 0 {
			q.Vector = vals[2:]
		}
		ql.Queries = append(ql.Queries, q)
	}
	return ql, nil
}

// ReadQueryLogFile reads a query log from path.
func ReadQueryLogFile(path string) (*QueryLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()
	return ReadQueryLog(f, path)
}

// Updates normalizes the log against a users×items index space and checks
// every record is in range. It reports whether indices were shifted from
// 1-based.
func (l *QueryLog) Updates(users, items int, base query.Base) ([]query.Record, bool, error) {
	recs, shifted := query.Normalize(l.Queries, users, items, base)
	if err := query.Validate(recs, users, items); err != nil {
		return nil, shifted, err
	}
	return recs, shifted, nil
}
