// profilecheck verifies a secret-shared profile update run: it reconstructs
// the initial and final U and V from both parties' shares, replays the query
// log in plaintext and reports every query whose profile row disagrees.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mfverify/checker"
	"mfverify/config"
	"mfverify/utils"
)

var (
	configPath string
	dataRoot   string
	indexBase  string
	tolerance  string
	arith      string
	modes      []string
	jsonPath   string
	verbose    bool
	showTiming bool

	logger   *zap.Logger
	exitCode = checker.ExitPass
)

var rootCmd = &cobra.Command{
	Use:   "profilecheck",
	Short: "Verify secret-shared user and item profile updates",
	Long: `Reconstructs U and V from the p0/p1 share files before and after the
protocol run, replays every query of the query log on plaintext copies and
compares the result with the reconstructed output.

Exit status is 0 when every check passes, 1 when any profile row is wrong
and 2 when the inputs cannot be read or do not line up.`,
	Args:          cobra.NoArgs,
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
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "verify.yaml", "YAML config file (missing file uses the default layout)")
	rootCmd.Flags().StringVar(&dataRoot, "data", "", "data directory (overrides data_root)")
	rootCmd.Flags().StringVar(&indexBase, "index-base", "", "query index base: auto, zero or one")
	rootCmd.Flags().StringVar(&tolerance, "tolerance", "", "exact, eps or a positive number")
	rootCmd.Flags().StringVar(&arith, "arith", "", "share arithmetic: wrap (modulo 2^64) or checked")
	rootCmd.Flags().StringSliceVar(&modes, "mode", nil, "modes to run: user, item")
	rootCmd.Flags().StringVar(&jsonPath, "json", "", "also write the results to this JSON file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().BoolVar(&showTiming, "timing", false, "print per-stage timings")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataRoot = dataRoot
	}
	if flags.Changed("index-base") {
		cfg.IndexBase = indexBase
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("arith") {
		cfg.Arith = arith
	}
	if flags.Changed("mode") {
		cfg.Modes = modes
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Verbose && !verbose {
		if logger, err = utils.NewLogger(true); err != nil {
			return err
		}
	}
	base, _ := cfg.Base()
	tol, _ := cfg.Tol()
	ar, _ := cfg.ArithMode()
	runModes, _ := cfg.RunModes()
	out := cmd.OutOrStdout()

	stats := utils.NewTimingStats()
	lay := cfg.Layout()
	logger.Debug("Loading run",
		zap.String("data_root", cfg.DataRoot),
		zap.String("queries", lay.Queries),
		zap.Stringer("index_base", base),
		zap.Stringer("tolerance", tol),
		zap.Stringer("arith", ar))

	st, err := (&checker.Loader{Log: logger, Stats: stats, Arith: ar}).Layout(lay)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded U %dx%d, V %dx%d, %d queries\n",
		st.InitialU.Rows, st.InitialU.Cols, st.InitialV.Rows, st.InitialV.Cols, len(st.Queries))

	c := &checker.Checker{Log: logger, Stats: stats, Base: base, Tolerance: tol, Arith: ar}
	outcomes, err := c.Run(st, runModes...)
	rep := &checker.Reporter{W: out}
	for _, o := range outcomes {
		rep.Outcome(o)
	}
	if err != nil {
		return err
	}
	rep.Summary(outcomes)

	if jsonPath != "" {
		if err := checker.SaveReport(jsonPath, checker.NewRunReport(outcomes)); err != nil {
			return err
		}
		logger.Info("Wrote report", zap.String("path", jsonPath))
	}

	utils.Verbose, utils.Output = showTiming, out
	utils.PrintTimingStats(stats)

	exitCode = checker.ExitCode(outcomes, nil)
	return nil
}

// execute runs the command line args and returns the process exit status.
func execute(args []string) int {
	exitCode = checker.ExitPass
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		if logger != nil && checker.IsFatal(err) {
			logger.Error("Verification aborted", zap.Error(err))
		}
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return checker.ExitFatal
	}
	return exitCode
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
