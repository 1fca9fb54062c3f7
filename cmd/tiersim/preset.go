package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/loyalty-engine/factory"
	"github.com/warp/loyalty-engine/presets"
)

func newPresetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Print the default program as a document",
		Long: `Print the default program as a document.

The output is a valid --config file for 'tiersim simulate' and a valid
"config" object for POST /api/simulations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := factory.Format(format)
			if f != factory.FormatYAML && f != factory.FormatJSON {
				return fmt.Errorf("--format must be %q or %q", factory.FormatYAML, factory.FormatJSON)
			}
			bf := factory.NewBundleFactory()
			data, err := bf.Encode(bf.ToDoc(presets.DefaultProgram()), f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(factory.FormatYAML), "Output format: yaml or json")
	return cmd
}
