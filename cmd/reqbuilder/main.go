package main

import (
	"os"

	"github.com/brizzai/reqbuilder/internal/config"
	"github.com/brizzai/reqbuilder/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

var (
	configFile string
	cfg        *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reqbuilder",
	Short: "Build HTTP requests from annotated Go structs",
	Long: `reqbuilder generates request implementations for annotated Go structs,
imports OpenAPI documents as such structs and sends requests described in YAML manifests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
		loaded, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		return logger.InitLogger(&cfg.Logging)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the configuration file (default ./reqbuilder.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newGenCmd(), newImportCmd(), newSendCmd())
}
