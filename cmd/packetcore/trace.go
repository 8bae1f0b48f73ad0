package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/strangelove-ventures/packetcore/conformance"
)

func traceCmd(a *app) *cobra.Command {
	trace := &cobra.Command{
		Use:   "trace",
		Short: "Work with model-generated conformance traces",
	}

	var verbose bool
	inspect := &cobra.Command{
		Use:   "inspect <trace.json>",
		Short: "Decode a trace and print its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := conformance.LoadTrace(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, step := range steps {
				chains := make([]string, 0, len(step.Chains))
				for _, name := range slices.Sorted(maps.Keys(step.Chains)) {
					chains = append(chains, fmt.Sprintf("%s=%d", name, step.Chains[name].Height))
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, step.Action.Type(), step.ActionOutcome, strings.Join(chains, " "))
				if verbose {
					spew.Fdump(out, step.Action)
				}
			}
			a.log.Debug(fmt.Sprintf("Decoded %d steps", len(steps)))
			return nil
		},
	}
	inspect.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump every action field")

	trace.AddCommand(inspect)
	return trace
}
