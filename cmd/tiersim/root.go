package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:           "tiersim",
		Short:         "Seller loyalty tier progression simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.settingsFile, "settings", "", "YAML settings file")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Bool("dev", false, "Human-readable console logs")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.development", flags.Lookup("dev"))

	root.AddCommand(
		newServeCmd(a),
		newSimulateCmd(a),
		newScenariosCmd(),
		newPresetCmd(),
	)
	return root
}
