package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "selectcli",
	Short: "Drive the component selection core against a demo provider",
	Long: `selectcli exercises the selection core end to end against a small,
built-in demo provider. It exists to demonstrate the solver, not to
parse real feeds: point it at a real implementation provider by
importing the selector package directly instead.`,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}
