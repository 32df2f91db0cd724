package main

import (
	"github.com/brizzai/reqbuilder/internal/codegen"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "gen [dir]",
		Short: "Generate request implementations for annotated structs",
		Long: `gen type-checks the package in dir (default ".") and writes Method, Endpoint,
Headers, QueryParams and Body for every struct whose blank field carries a request tag.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if output == "" {
				output = cfg.Generator.Output
			}
			written, err := codegen.NewGenerator(nil).Generate(dir, output)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %s", written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Generated file name (default from generator.output)")
	return cmd
}
