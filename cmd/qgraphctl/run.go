package main

import (
	"fmt"

	"github.com/adalundhe/qgraph/demo/arithmetic"
	"github.com/adalundhe/qgraph/engine"
	"github.com/spf13/cobra"
)

var runN int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate Sum(n) and print the result",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runN, "n", "n", 10, "the n in Sum(n)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	h := arithmetic.NewHandler()
	e, err := engine.NewBuilder().Register(arithmetic.Class(), h).Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer e.Close()

	v, err := engine.Evaluate[int](cmd.Context(), e, arithmetic.Sum{N: runN})
	if err != nil {
		return fmt.Errorf("evaluate Sum(%d): %w", runN, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sum(%d) = %d\n", runN, v)
	return nil
}
