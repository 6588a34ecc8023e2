package reader

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfverify/matrix"
	"mfverify/query"
)

func TestReadMatrix(t *testing.T) {
	in := "\n2 3\n1 2 3\n\n-4 5 -6\ntrailing junk ignored\n"
	m, err := ReadMatrix(strings.NewReader(in), "shares.txt")
	require.NoError(t, err)
	want, _ := matrix.FromRows([][]int64{{1, 2, 3}, {-4, 5, -6}})
	assert.True(t, m.Equal(want), "got %v", m)
}

func TestReadMatrixErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		line int
		msg  string
	}{
		{"empty", "", 0, "unexpected EOF"},
		{"one-token header", "2\n1 2\n", 1, "bad matrix header"},
		{"negative header", "-1 2\n", 1, "not a count"},
		{"short row", "2 2\n1 2\n3\n", 3, "expected 2 values, got 1"},
		{"long row", "1 2\n1 2 3\n", 2, "expected 2 values, got 3"},
		{"non-integer", "1 2\n1 x\n", 2, `non-integer token "x"`},
		{"float token", "1 1\n1.5\n", 2, "non-integer token"},
		{"premature EOF", "3 1\n1\n2\n", 3, "unexpected EOF while reading matrix row 3 of 3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadMatrix(strings.NewReader(tc.in), "m.txt")
			require.ErrorIs(t, err, ErrFormat)
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.line, fe.Line)
			assert.Contains(t, fe.Error(), tc.msg)
			assert.Contains(t, fe.Error(), "m.txt")
		})
	}
}

func TestReadMatrixFileMissing(t *testing.T) {
	_, err := ReadMatrixFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadQueryLog(t *testing.T) {
	in := "2 3\n0 1 5 6 7\n2 0 -1 0 1\n"
	ql, err := ReadQueryLog(strings.NewReader(in), "queries.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, ql.K)
	require.Len(t, ql.Queries, 2)
	assert.Equal(t, query.Raw{User: 0, Item: 1, Vector: []int64{5, 6, 7}}, ql.Queries[0])
	assert.Equal(t, query.Raw{User: 2, Item: 0, Vector: []int64{-1, 0, 1}}, ql.Queries[1])
}

func TestReadQueryLogIndexOnly(t *testing.T) {
	ql, err := ReadQueryLog(strings.NewReader("1\n3 4\n"), "q.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, ql.K)
	assert.Nil(t, ql.Queries[0].Vector)
}

func TestReadQueryLogErrors(t *testing.T) {
	for name, in := range map[string]string{
		"bad header":      "a b\n",
		"three tokens":    "1 2 3\n",
		"wrong width":     "1 2\n0 0 1\n",
		"premature EOF":   "2 0\n0 0\n",
		"non-integer idx": "1 0\nx 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadQueryLog(strings.NewReader(in), "q.txt")
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestQueryLogUpdates(t *testing.T) {
	ql := &QueryLog{Queries: []query.Raw{{User: 1, Item: 1}, {User: 2, Item: 3}}}
	recs, shifted, err := ql.Updates(2, 3, query.Auto)
	require.NoError(t, err)
	assert.True(t, shifted)
	assert.Equal(t, 1, recs[1].User)
	assert.Equal(t, 2, recs[1].Item)

	_, _, err = ql.Updates(2, 3, query.Zero)
	assert.ErrorIs(t, err, query.ErrIndexOutOfRange)
}

const plainFixture = `
u ( m=2 , k=2 )
0 0
1 1
V (n=2, k=2)
1 0
0 1

QUERIES (q=2)
0 0
1 1
`

func TestReadPlain(t *testing.T) {
	p, err := ReadPlain(strings.NewReader(plainFixture), "plain.txt")
	require.NoError(t, err)
	assert.Equal(t, matrix.Shape{Rows: 2, Cols: 2}, p.U.Shape())
	assert.Equal(t, matrix.Shape{Rows: 2, Cols: 2}, p.V.Shape())
	assert.Equal(t, int64(1), p.V.At(0, 0))
	assert.Equal(t, []query.Raw{{User: 0, Item: 0}, {User: 1, Item: 1}}, p.Queries)
}

func TestReadPlainErrors(t *testing.T) {
	cases := map[string]string{
		"bad U header":   "X (m=1, k=1)\n1\n",
		"k mismatch":     "U (m=1, k=2)\n1 2\nV (n=1, k=3)\n1 2 3\nqueries (q=0)\n",
		"missing V":      "U (m=1, k=1)\n1\n",
		"bad query line": "U (m=1, k=1)\n1\nV (n=1, k=1)\n1\nqueries (q=1)\n0 0 0\n",
		"short U":        "U (m=2, k=1)\n1\nV (n=1, k=1)\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadPlain(strings.NewReader(in), "plain.txt")
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadParams(t *testing.T) {
	p, err := ReadParams(strings.NewReader("10 20 5 8\n"), "params.txt")
	require.NoError(t, err)
	assert.Equal(t, Params{M: 10, N: 20, K: 5, Q: 8}, p)

	_, err = ReadParams(strings.NewReader("10 20 5\n"), "params.txt")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestWriteReadRoundTripFiles(t *testing.T) {
	dir := t.TempDir()
	m, _ := matrix.FromRows([][]int64{{1, -2}, {3, 4}})
	qs := []query.Raw{{User: 1, Item: 0, Vector: []int64{7, 8}}}

	mPath := filepath.Join(dir, "p0_shares", "p0_U.txt")
	require.NoError(t, WriteFile(mPath, func(w io.Writer) error { return WriteMatrix(w, m) }))
	qPath := filepath.Join(dir, "queries.txt")
	require.NoError(t, WriteFile(qPath, func(w io.Writer) error { return WriteQueryLog(w, 2, qs) }))
	pPath := filepath.Join(dir, "params.txt")
	params := Params{M: 2, N: 1, K: 2, Q: 1}
	require.NoError(t, WriteFile(pPath, func(w io.Writer) error { return WriteParams(w, params) }))

	gotM, err := ReadMatrixFile(mPath)
	require.NoError(t, err)
	assert.True(t, gotM.Equal(m))

	gotQ, err := ReadQueryLogFile(qPath)
	require.NoError(t, err)
	assert.Equal(t, qs, gotQ.Queries)

	gotP, err := ReadParamsFile(pPath)
	require.NoError(t, err)
	assert.Equal(t, params, gotP)
}

func TestWritePlainIsReadable(t *testing.T) {
	u, _ := matrix.FromRows([][]int64{{0, 0}})
	v, _ := matrix.FromRows([][]int64{{1, 0}, {0, 1}})
	var buf bytes.Buffer
	in := &Plain{U: u, V: v, Queries: []query.Raw{{User: 0, Item: 1}}}
	require.NoError(t, WritePlain(&buf, in))

	out, err := ReadPlain(&buf, "plain.txt")
	require.NoError(t, err)
	assert.True(t, out.U.Equal(u))
	assert.True(t, out.V.Equal(v))
	assert.Equal(t, in.Queries, out.Queries)
}

func TestWriteQueryLogRejectsShortVector(t *testing.T) {
	err := WriteQueryLog(io.Discard, 3, []query.Raw{{Vector: []int64{1}}})
	assert.Error(t, err)
}

func TestOversizedHeadersAreFormatErrors(t *testing.T) {
	maxInt := strconv.Itoa(math.MaxInt)
	cases := []struct {
		name string
		read func(io.Reader) error
		in   string
		msg  string
	}{
		{"query k overflow", readQueryLog, "1 " + maxInt + "\n0 0\n", "width"},
		{"query q larger than file", readQueryLog, "1099511627776 2\n0 0 1 1\n", "unexpected EOF while reading query 2"},
		{"matrix rows*cols overflow", readMatrix, maxInt + " 2\n1 2\n", "too large"},
		{"matrix cols over limit", readMatrix, "1 " + maxInt + "\n1\n", "width"},
		{"matrix rows larger than file", readMatrix, maxInt + " 1\n1\n", "unexpected EOF while reading matrix row 2"},
		{"plain U overflow", readPlain, "U (m=" + maxInt + ", k=2)\n1 2\n", "too large"},
		{"plain k over limit", readPlain, "U (m=0, k=" + maxInt + ")\n", "width"},
		{"plain q larger than file", readPlain, "U (m=1, k=1)\n1\nV (n=1, k=1)\n1\nqueries (q=" + maxInt + ")\n0 0\n", "unexpected EOF while reading query 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { err = tc.read(strings.NewReader(tc.in)) })
			require.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func readQueryLog(r io.Reader) error {
	_, err := ReadQueryLog(r, "q.txt")
	return err
}

func readMatrix(r io.Reader) error {
	_, err := ReadMatrix(r, "m.txt")
	return err
}

func readPlain(r io.Reader) error {
	_, err := ReadPlain(r, "plain.txt")
	return err
}
