// Package cmd provides the CLI commands for govstandards.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Version1/uk-gov-tech-standards-mcp/internal/config"
	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
	"github.com/Version1/uk-gov-tech-standards-mcp/pkg/version"
)

var configPath string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "govstandards",
		Short: "UK government technology standards catalogue",
		Long: `govstandards catalogues UK government technology guidance and
serves it to AI assistants over the Model Context Protocol.

Documents are classified and validated on ingestion, indexed for both
keyword and semantic retrieval, and searched with hybrid fusion.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("govstandards version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a configuration file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI. Errors are printed with their code and
// suggestion before the non-zero exit.
func Execute() error {
	// .env is optional; absence is the normal case
	_ = godotenv.Load()

	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.FormatForCLI(err))
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
