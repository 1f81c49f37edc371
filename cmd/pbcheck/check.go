package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crillab/pbsolve/pbtheory"
	"github.com/crillab/pbsolve/refhost"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.opb>",
		Short: "internalise every constraint in file.opb as a hard constraint and run unit propagation",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
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
		lit, err := plugin.Internalize(pbtheory.PBAtom{
			Var:     pbtheory.NoVar,
			Lits:    c.lits,
			Weights: c.weights,
			K:       c.k,
			Op:      c.op,
		})
		if err != nil {
			return fmt.Errorf("internalising constraint: %w", err)
		}
		if err := host.Assign(lit, pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "UNSATISFIABLE")
			return nil
		}
	}

	if host.Propagate() {
		fmt.Fprintln(cmd.OutOrStdout(), "UNSATISFIABLE")
		return nil
	}

	model := host.Model()
	full := true
	for i := range model {
		if host.Assignment(pbtheory.Var(i).Lit()) == pbtheory.Undef {
			full = false
			break
		}
	}
	if full {
		fmt.Fprintln(cmd.OutOrStdout(), "SATISFIABLE")
		for i, v := range model {
			fmt.Fprintf(cmd.OutOrStdout(), "x%d=%t\n", i+1, v)
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "UNKNOWN (propagation alone did not decide every variable; pbcheck has no search)")
	}
	stats := plugin.CollectStatistics()
	fmt.Fprintf(cmd.OutOrStdout(), "c predicates=%d propagations=%d conflicts=%d compilations=%d\n",
		stats.Predicates, stats.Propagations, stats.Conflicts, stats.Compilations)
	return nil
}
