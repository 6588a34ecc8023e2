// sharediff checks one batch of user updates against a combined plaintext
// file: sharediff <plain> <p0_U> <p1_U>.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mfverify/checker"
	"mfverify/diff"
	"mfverify/matrix"
	"mfverify/query"
	"mfverify/utils"
)

var (
	indexBase string
	tolerance string
	arith     string
	verbose   bool

	logger   *zap.Logger
	exitCode = checker.ExitPass
)

var rootCmd = &cobra.Command{
	Use:   "sharediff <plain> <p0_U> <p1_U>",
	Short: "Diff reconstructed user profiles against a plaintext replay",
	Long: `Reads the combined plaintext file (U, V and the query list), applies
every query to a copy of U and compares the result with p0_U + p1_U.

Exit status is 0 on a match, 1 on any mismatching row and 2 on bad input.`,
	Args:          cobra.ExactArgs(3),
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
	rootCmd.Flags().StringVar(&indexBase, "index-base", "auto", "query index base: auto, zero or one")
	rootCmd.Flags().StringVar(&tolerance, "tolerance", "exact", "exact, eps or a positive number")
	rootCmd.Flags().StringVar(&arith, "arith", "wrap", "share arithmetic: wrap (modulo 2^64) or checked")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	base, err := query.ParseBase(indexBase)
	if err != nil {
		return err
	}
	tol, err := diff.ParseTolerance(tolerance)
	if err != nil {
		return err
	}

	ar, err := matrix.ParseArith(arith)
	if err != nil {
		return err
	}

	st, err := (&checker.Loader{Log: logger, Arith: ar}).Plain(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	o, err := (&checker.Checker{Log: logger, Base: base, Tolerance: tol, Arith: ar}).Verify(st, checker.SubjectUpdate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rep := &checker.Reporter{W: out}
	rep.Matrices(o)
	fmt.Fprintf(out, "m=%d, k=%d, n=%d, queries=%d\n",
		st.InitialU.Rows, st.InitialU.Cols, st.InitialV.Rows, len(st.Queries))
	rep.Diff(o.Diff, o.Touched.Sorted())

	exitCode = checker.ExitCode([]*checker.Outcome{o}, nil)
	return nil
}

// execute runs the command line args and returns the process exit status.
func execute(args []string) int {
	exitCode = checker.ExitPass
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return checker.ExitFatal
	}
	return exitCode
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
