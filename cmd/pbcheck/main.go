// Command pbcheck drives the pbtheory plugin over refhost's minimal
// reference host, the way gophersat's own main.go drives solver.Solver
// over a parsed Problem — a thin CLI, not the point of this repository.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crillab/pbsolve/pbtheory"
)

var cfgFile string

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pbcheck",
		Short: "pbcheck checks pseudo-Boolean constraint files against the pbtheory plugin",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return initConfig()
		},
	}
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (none is read unless given)")
	bindConfigFlags(root)

	root.AddCommand(newCheckCmd())
	root.AddCommand(newStatsCmd())
	return root
}

// bindConfigFlags exposes every pbtheory.Config field as a CLI flag
// bound through viper, the way the teacher's library code never takes a
// config object but operator-cli's commands bind flags to struct fields
// directly (cmd/operator-cli/bundle/generate.go): here the binding runs
// one layer further, through viper, so the same keys are settable via
// --config file or PBCHECK_* environment variables (§10.2).
func bindConfigFlags(root *cobra.Command) {
	root.PersistentFlags().Bool("compile", true, "enable sorting-network compilation of hot constraints")
	root.PersistentFlags().Int("max-coeff-for-compilation", 8, "coefficient bound for compilation: only constraints whose largest coefficient is below it are compiled")
	root.PersistentFlags().Int("direct-threshold", 10, "n below which direct encodings are considered")
	root.PersistentFlags().Bool("disable-direct-sorting", false, "disable the direct sorting encoding")
	root.PersistentFlags().Bool("force-direct-sorting", false, "force the direct sorting encoding")
	root.PersistentFlags().Bool("disable-direct-merge", false, "disable the direct merge encoding")
	root.PersistentFlags().Bool("force-direct-merge", false, "force the direct merge encoding")
	root.PersistentFlags().Bool("disable-direct-card", false, "disable the direct cardinality encoding")
	root.PersistentFlags().Bool("force-direct-card", false, "force the direct cardinality encoding")

	_ = viper.BindPFlag("compile", root.PersistentFlags().Lookup("compile"))
	_ = viper.BindPFlag("max_coeff_for_compilation", root.PersistentFlags().Lookup("max-coeff-for-compilation"))
	_ = viper.BindPFlag("direct_threshold", root.PersistentFlags().Lookup("direct-threshold"))
	_ = viper.BindPFlag("disable_direct_sorting", root.PersistentFlags().Lookup("disable-direct-sorting"))
	_ = viper.BindPFlag("force_direct_sorting", root.PersistentFlags().Lookup("force-direct-sorting"))
	_ = viper.BindPFlag("disable_direct_merge", root.PersistentFlags().Lookup("disable-direct-merge"))
	_ = viper.BindPFlag("force_direct_merge", root.PersistentFlags().Lookup("force-direct-merge"))
	_ = viper.BindPFlag("disable_direct_card", root.PersistentFlags().Lookup("disable-direct-card"))
	_ = viper.BindPFlag("force_direct_card", root.PersistentFlags().Lookup("force-direct-card"))
}

func initConfig() error {
	viper.SetEnvPrefix("pbcheck")
	viper.AutomaticEnv()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// configFromViper builds the pbtheory.Config the library actually takes
// (§10.2: the library package itself never imports viper).
func configFromViper() pbtheory.Config {
	return pbtheory.Config{
		CompilationEnabled:      viper.GetBool("compile"),
		MaxCoeffForCompilation:  viper.GetInt("max_coeff_for_compilation"),
		DirectEncodingThreshold: viper.GetInt("direct_threshold"),
		DisableDirectSorting:    viper.GetBool("disable_direct_sorting"),
		ForceDirectSorting:      viper.GetBool("force_direct_sorting"),
		DisableDirectMerge:      viper.GetBool("disable_direct_merge"),
		ForceDirectMerge:        viper.GetBool("force_direct_merge"),
		DisableDirectCard:       viper.GetBool("disable_direct_card"),
		ForceDirectCard:         viper.GetBool("force_direct_card"),
	}
}
