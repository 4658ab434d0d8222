package main

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/selector"
)

var (
	solveInterface string
	solveCommand   string
	solveMinVer    string
	solveExplain   bool
)

var solveCmd = &cobra.Command{
	Use:   "solve [interface]",
	Short: "Solve for an interface against the built-in demo provider",
	Long: `solve runs the two-pass solve against a small built-in demo
provider exposing an app -> lib -> runtime dependency chain, and
prints the resulting selections document as indented XML.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		iface := "https://example.org/app"
		if len(args) == 1 {
			iface = args[0]
		}
		if solveInterface != "" {
			iface = solveInterface
		}

		reqs := selector.Requirements{
			Interface: model.Interface(iface),
			Command:   solveCommand,
		}
		if solveMinVer != "" {
			min, err := parseVersion(solveMinVer)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			reqs.ExtraRestrictions = map[model.Interface][]model.Restriction{
				model.Interface(iface): {model.VersionRestriction{Min: min}},
			}
		}

		res, err := selector.Solve(cmd.Context(), demoProvider(), reqs)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		out, err := xml.MarshalIndent(res.Selections(), "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(out))

		if !res.Ok {
			fmt.Fprintln(os.Stderr, "no exact solution: showing the closest match instead")
		}

		if solveExplain {
			for _, status := range res.Implementations() {
				reason := res.Explain(status.Lit)
				if reason != nil {
					fmt.Fprintf(os.Stderr, "%s: %s\n", status.Interface, reason.Label)
				}
			}
		}
	},
}

func init() {
	solveCmd.Flags().StringVar(&solveInterface, "interface", "", "interface URI to solve for (overrides the positional argument)")
	solveCmd.Flags().StringVar(&solveCommand, "command", "", "command name to require on the root interface")
	solveCmd.Flags().StringVar(&solveMinVer, "min-version", "", "minimum acceptable version for the root interface")
	solveCmd.Flags().BoolVar(&solveExplain, "explain", false, "print the top-level label of the reason tree for every selected literal")
}
