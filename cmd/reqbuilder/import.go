package main

import (
	"errors"
	"os"

	"github.com/brizzai/reqbuilder/internal/codegen"
	"github.com/brizzai/reqbuilder/internal/openapi"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		specFile        string
		adjustmentsFile string
		pkg             string
		output          string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an OpenAPI document as annotated request structs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if specFile == "" {
				return errors.New("OpenAPI file is required, you must supply it with --openapi")
			}
			fs := afero.NewOsFs()
			adjuster := openapi.NewAdjuster(fs)
			if err := adjuster.Load(adjustmentsFile); err != nil {
				return err
			}
			importer := openapi.NewImporter(fs, adjuster)
			if err := importer.LoadFile(specFile); err != nil {
				return err
			}
			file, err := importer.File(pkg)
			if err != nil {
				return err
			}
			src, err := codegen.RenderDefinitions(file)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = os.Stdout.Write(src)
				return err
			}
			if err := codegen.NewGenerator(fs).WriteFile(output, src); err != nil {
				return err
			}
			pterm.Success.Printfln("Imported %s operations into %s",
				pterm.LightGreen(len(file.Requests)), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&specFile, "openapi", "", "Path to the OpenAPI/Swagger file (JSON or YAML)")
	cmd.Flags().StringVar(&adjustmentsFile, "adjustments", "", "Path to the import adjustments file")
	cmd.Flags().StringVar(&pkg, "package", "api", "Package name of the generated file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}
