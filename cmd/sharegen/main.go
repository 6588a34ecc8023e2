// sharegen writes a synthetic share-protocol data directory: random initial
// U and V split into p0/p1 shares, a query log with embedded item vectors,
// the params file and the combined plaintext file. With --with-final it also
// writes correctly updated final shares, so profilecheck passes on the
// result.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mfverify/checker"
	"mfverify/config"
	"mfverify/matrix"
	"mfverify/query"
	"mfverify/reader"
	"mfverify/replay"
	"mfverify/share"
	"mfverify/utils"
)

var (
	outDir     string
	seed       string
	valueBound int64
	shareBound int64
	withFinal  bool
	oneBased   bool
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sharegen <m> <n> <k> <q>",
	Short: "Generate secret-shared profile fixtures",
	Long: `Generates m user and n item profiles of width k and q random queries,
splits the profiles into additive shares and writes the data layout read by
profilecheck and sharediff.`,
	Args:          cobra.ExactArgs(4),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = utils.NewLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "data", "output directory")
	rootCmd.Flags().StringVar(&seed, "seed", "", "PRNG key; empty draws a fresh seed")
	rootCmd.Flags().Int64Var(&valueBound, "value-bound", 1, "plaintext entries are drawn from [-b, b]")
	rootCmd.Flags().Int64Var(&shareBound, "share-bound", 1<<20, "p0 shares are drawn from [-b, b]")
	rootCmd.Flags().BoolVar(&withFinal, "with-final", false, "also write the expected final shares")
	rootCmd.Flags().BoolVar(&oneBased, "one-based", false, "write 1-based query indices")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func parseDims(args []string) (reader.Params, error) {
	var vals [4]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 {
			return reader.Params{}, fmt.Errorf("invalid dimension %q", a)
		}
		vals[i] = v
	}
	p := reader.Params{M: vals[0], N: vals[1], K: vals[2], Q: vals[3]}
	if p.Q > 0 && (p.M == 0 || p.N == 0) {
		return reader.Params{}, fmt.Errorf("queries need at least one user and one item")
	}
	return p, nil
}

// index draws uniformly from [0, n).
func index(src io.Reader, n int) (int, error) {
	for {
		v, err := share.Uniform(src, int64(n))
		if err != nil {
			return 0, err
		}
		if v >= 0 && v < int64(n) {
			return int(v), nil
		}
	}
}

func randomQueries(src io.Reader, p reader.Params, v *matrix.Matrix) ([]query.Raw, error) {
	out := make([]query.Raw, p.Q)
	for i := range out {
		u, err := index(src, p.M)
		if err != nil {
			return nil, err
		}
		it, err := index(src, p.N)
		if err != nil {
			return nil, err
		}
		out[i] = query.Raw{User: u, Item: it, Vector: v.RowCopy(it)}
	}
	return out, nil
}

func writeShares(src io.Reader, files checker.ShareFiles, u, v *matrix.Matrix) error {
	for _, s := range []struct {
		m      *matrix.Matrix
		p0, p1 string
	}{
		{u, files.P0U, files.P1U},
		{v, files.P0V, files.P1V},
	} {
		pair, err := share.Split(s.m, src, shareBound)
		if err != nil {
			return err
		}
		if err := reader.WriteFile(s.p0, func(w io.Writer) error { return reader.WriteMatrix(w, pair.P0) }); err != nil {
			return err
		}
		if err := reader.WriteFile(s.p1, func(w io.Writer) error { return reader.WriteMatrix(w, pair.P1) }); err != nil {
			return err
		}
		logger.Debug("Wrote shares", zap.String("p0", s.p0), zap.String("p1", s.p1))
	}
	return nil
}

// finalProfiles replays recs over u and v the way the protocol does.
func finalProfiles(u, v *matrix.Matrix, recs []query.Record) (*matrix.Matrix, *matrix.Matrix, error) {
	users := &replay.Replayer{Subject: replay.ByUser, Counterpart: replay.Lookup{M: v, Key: replay.ByItem}, Log: logger}
	fu, err := users.Expected(u, recs)
	if err != nil {
		return nil, nil, fmt.Errorf("user updates: %w", err)
	}
	items := &replay.Replayer{Subject: replay.ByItem, Counterpart: replay.Lookup{M: u, Key: replay.ByUser}, Log: logger}
	fv, err := items.Expected(v, recs)
	if err != nil {
		return nil, nil, fmt.Errorf("item updates: %w", err)
	}
	return fu.Expected, fv.Expected, nil
}

func run(cmd *cobra.Command, args []string) error {
	p, err := parseDims(args)
	if err != nil {
		return err
	}
	if valueBound < 0 || shareBound < 0 {
		return fmt.Errorf("bounds must not be negative")
	}
	src, err := share.NewSource([]byte(seed))
	if err != nil {
		return err
	}

	u, err := share.Random(p.M, p.K, src, valueBound)
	if err != nil {
		return err
	}
	v, err := share.Random(p.N, p.K, src, valueBound)
	if err != nil {
		return err
	}
	raws, err := randomQueries(src, p, v)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.DataRoot = outDir
	cfg.IndexBase = query.Zero.String()
	cfg.Tolerance = "exact"
	if oneBased {
		cfg.IndexBase = query.One.String()
	}
	lay := cfg.Layout()

	if err := writeShares(src, lay.Initial, u, v); err != nil {
		return err
	}

	onDisk := raws
	if oneBased {
		onDisk = make([]query.Raw, len(raws))
		for i, q := range raws {
			onDisk[i] = query.Raw{User: q.User + 1, Item: q.Item + 1, Vector: q.Vector}
		}
	}
	if err := reader.WriteFile(lay.Queries, func(w io.Writer) error {
		return reader.WriteQueryLog(w, p.K, onDisk)
	}); err != nil {
		return err
	}
	if err := reader.WriteFile(lay.Params, func(w io.Writer) error {
		return reader.WriteParams(w, p)
	}); err != nil {
		return err
	}
	plainPath := filepath.Join(outDir, "plain.txt")
	if err := reader.WriteFile(plainPath, func(w io.Writer) error {
		return reader.WritePlain(w, &reader.Plain{U: u, V: v, Queries: onDisk})
	}); err != nil {
		return err
	}

	if withFinal {
		recs, _ := query.Normalize(raws, p.M, p.N, query.Zero)
		fu, fv, err := finalProfiles(u, v, recs)
		if err != nil {
			return err
		}
		if err := writeShares(src, lay.Final, fu, fv); err != nil {
			return err
		}
	}

	cfgPath := filepath.Join(outDir, "verify.yaml")
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}
	if !oneBased && query.OneBased(raws, p.M, p.N) {
		logger.Warn("Generated 0-based queries look 1-based; verify with the written config or --index-base zero",
			zap.String("config", cfgPath))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s (config %s)\n", p, outDir, cfgPath)
	return nil
}

// execute runs the command line args and returns the process exit status.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return checker.ExitFatal
	}
	return checker.ExitPass
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
