package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/trainpi/internal/config"
)

var (
	// configCmd groups configuration helpers.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}

	// configInitCmd writes a configuration file with default values.
	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with default values.",
		Long: `Writes every setting with its default value so it can be edited.
The file is written to --config unless a path is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) > 0 {
				path = args[0]
			}

			if err := config.Save(path, config.New()); err != nil {
				return fmt.Errorf("write configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configCmd.AddCommand(configInitCmd)
}
