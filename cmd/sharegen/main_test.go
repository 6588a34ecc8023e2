package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mfverify/checker"
	"mfverify/config"
	"mfverify/query"
	"mfverify/reader"
)

func generate(t *testing.T, args ...string) string {
	t.Helper()
	logger = zap.NewNop()
	outDir = t.TempDir()
	seed = "sharegen-test"
	valueBound, shareBound = 1, 1000
	withFinal = true
	t.Cleanup(func() { oneBased = false })
	require.NoError(t, run(rootCmd, args))
	return outDir
}

func verify(t *testing.T, dir string) []*checker.Outcome {
	t.Helper()
	cfg, err := config.Load(filepath.Join(dir, "verify.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	base, _ := cfg.Base()
	tol, _ := cfg.Tol()

	st, err := (&checker.Loader{}).Layout(cfg.Layout())
	require.NoError(t, err)
	outcomes, err := (&checker.Checker{Base: base, Tolerance: tol}).Run(st, checker.Modes...)
	require.NoError(t, err)
	return outcomes
}

func TestGeneratedRunVerifies(t *testing.T) {
	dir := generate(t, "4", "3", "2", "6")

	params, err := reader.ReadParamsFile(filepath.Join(dir, "params.txt"))
	require.NoError(t, err)
	assert.Equal(t, reader.Params{M: 4, N: 3, K: 2, Q: 6}, params)

	outcomes := verify(t, dir)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, o.Passed(), "%s failed", o.Mode)
		assert.Len(t, o.Verdicts, 6)
	}
}

func TestGeneratedOneBasedRunVerifies(t *testing.T) {
	oneBased = true
	dir := generate(t, "3", "3", "3", "4")
	outcomes := verify(t, dir)
	for _, o := range outcomes {
		assert.True(t, o.Normalized)
		assert.True(t, o.Passed(), "%s failed", o.Mode)
	}
}

func TestGeneratedPlainFileVerifies(t *testing.T) {
	dir := generate(t, "2", "2", "2", "3")
	st, err := (&checker.Loader{}).Plain(
		filepath.Join(dir, "plain.txt"),
		filepath.Join(dir, "final", "p0_shares", "p0_U.txt"),
		filepath.Join(dir, "final", "p1_shares", "p1_U.txt"))
	require.NoError(t, err)
	o, err := (&checker.Checker{Base: query.Zero}).Verify(st, checker.SubjectUpdate)
	require.NoError(t, err)
	assert.True(t, o.Passed())
}

func TestParseDims(t *testing.T) {
	p, err := parseDims([]string{"1", "2", "3", "4"})
	require.NoError(t, err)
	assert.Equal(t, reader.Params{M: 1, N: 2, K: 3, Q: 4}, p)

	_, err = parseDims([]string{"1", "-2", "3", "4"})
	assert.Error(t, err)
	_, err = parseDims([]string{"0", "2", "3", "4"})
	assert.Error(t, err)
}

func TestExecuteRejectsWrongArgCount(t *testing.T) {
	rootCmd.SetErr(io.Discard)
	defer rootCmd.SetErr(nil)
	assert.Equal(t, checker.ExitFatal, execute([]string{"1", "2", "3"}))
}
