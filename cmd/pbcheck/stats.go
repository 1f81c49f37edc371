package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crillab/pbsolve/pbtheory"
	"github.com/crillab/pbsolve/refhost"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.opb>",
		Short: "internalise every constraint in file.opb and report predicate/compilation counters",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	constrs, nbVars, err := parseOPB(f)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", args[0], err)
	}

	host := refhost.New()
	plugin := pbtheory.New(host, configFromViper())
	host.Attach(plugin)
	for i := 0; i < nbVars; i++ {
		host.NewVar()
	}
	for _, c := range constrs {
		if _, err := plugin.Internalize(pbtheory.PBAtom{
			Var:     pbtheory.NoVar,
			Lits:    c.lits,
			Weights: c.weights,
			K:       c.k,
			Op:      c.op,
		}); err != nil {
			return fmt.Errorf("internalising constraint: %w", err)
		}
	}

	stats := plugin.CollectStatistics()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "constraints:    %d\n", len(constrs))
	fmt.Fprintf(out, "variables:      %d\n", nbVars)
	fmt.Fprintf(out, "predicates:     %d\n", stats.Predicates)
	fmt.Fprintf(out, "propagations:   %d\n", stats.Propagations)
	fmt.Fprintf(out, "conflicts:      %d\n", stats.Conflicts)
	fmt.Fprintf(out, "compilations:   %d\n", stats.Compilations)
	fmt.Fprintf(out, "compiledClauses:%d\n", stats.CompiledClauses)
	fmt.Fprintf(out, "compiledVars:   %d\n", stats.CompiledVars)
	return nil
}
