package main

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfverify/checker"
	"mfverify/matrix"
	"mfverify/query"
	"mfverify/reader"
)

func resetFlags(t *testing.T) {
	t.Helper()
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	})
}

func writeMatrix(t *testing.T, path string, rows [][]int64) {
	t.Helper()
	m, err := matrix.FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, reader.WriteFile(path, func(w io.Writer) error { return reader.WriteMatrix(w, m) }))
}

// writeInputs writes the single-query example as a plaintext file plus the
// given final U shares and returns the three command arguments.
func writeInputs(t *testing.T, p0, p1 [][]int64) []string {
	t.Helper()
	dir := t.TempDir()
	u, _ := matrix.FromRows([][]int64{{0, 0}})
	v, _ := matrix.FromRows([][]int64{{1, 0}, {0, 1}})
	plain := filepath.Join(dir, "plain_UV.txt")
	require.NoError(t, reader.WriteFile(plain, func(w io.Writer) error {
		return reader.WritePlain(w, &reader.Plain{U: u, V: v, Queries: []query.Raw{{User: 0, Item: 0}}})
	}))
	args := []string{plain, filepath.Join(dir, "p0_U.txt"), filepath.Join(dir, "p1_U.txt")}
	writeMatrix(t, args[1], p0)
	writeMatrix(t, args[2], p1)
	return args
}

func runCommand(t *testing.T, args ...string) (int, string) {
	t.Helper()
	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return execute(args), out.String()
}

func TestMatchExitsZero(t *testing.T) {
	code, out := runCommand(t, writeInputs(t, [][]int64{{4, -7}}, [][]int64{{-3, 7}})...)
	assert.Equal(t, checker.ExitPass, code, out)
	assert.Contains(t, out, "m=1, k=2, n=2, queries=1")
	assert.Contains(t, out, "Touched rows: [0]")
	assert.Contains(t, out, "OK: actual matches expected (exact).")
	assert.Contains(t, out, "Max |diff| over all entries: 0")
}

func TestWrappedSharesMatch(t *testing.T) {
	// MinInt64 + (MinInt64 + 1) is 1 modulo 2^64.
	p0 := [][]int64{{math.MinInt64, math.MinInt64}}
	p1 := [][]int64{{math.MinInt64 + 1, math.MinInt64}}
	args := writeInputs(t, p0, p1)

	code, out := runCommand(t, args...)
	assert.Equal(t, checker.ExitPass, code, out)

	code, out = runCommand(t, append(args, "--arith", "checked")...)
	assert.Equal(t, checker.ExitFatal, code)
	assert.Contains(t, out, "int64 overflow")
}

func TestMismatchExitsOne(t *testing.T) {
	code, out := runCommand(t, writeInputs(t, [][]int64{{1, 1}}, [][]int64{{0, 0}})...)
	assert.Equal(t, checker.ExitFail, code, out)
	assert.Contains(t, out, "MISMATCH (touched rows)")
	assert.Contains(t, out, "Max |diff| over all entries: 1")
}

func TestFatalInputsExitTwo(t *testing.T) {
	args := writeInputs(t, [][]int64{{1, 0}}, [][]int64{{0, 0}})
	for name, argv := range map[string][]string{
		"two arguments":  args[:2],
		"missing plain":  {args[0] + ".missing", args[1], args[2]},
		"shape mismatch": writeInputs(t, [][]int64{{1, 0, 0}}, [][]int64{{0, 0}}),
		"bad tolerance":  append([]string{"--tolerance", "-3"}, args...),
	} {
		t.Run(name, func(t *testing.T) {
			code, out := runCommand(t, argv...)
			assert.Equal(t, checker.ExitFatal, code, out)
			assert.Contains(t, out, "Error:")
		})
	}
}
