package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/trainpi/internal/config"
	"github.com/oshokin/trainpi/internal/service/common"
	"github.com/oshokin/trainpi/internal/service/panel"
	"github.com/oshokin/trainpi/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// overrides collects flag values that replace configured ones.
	overrides common.Overrides

	// rootCmd represents the base command for the interactive control panel.
	rootCmd = &cobra.Command{
		Use:   "trainpi",
		Short: "Terminal control panel for a train motor.",
		Long: `Opens a full-screen control panel for a single DC motor.

Keys: Enter starts or stops the motor, Up and Down change speed,
R resets the run timer, Q or Ctrl-C exits.

The motor is driven through a Raspberry Pi Build HAT when one is present.
Without hardware the panel still runs so speed and timer can be tried out.
Use --device mock to simulate a motor.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return panel.Run(ctx, &panel.Options{
				ConfigPath: configPath,
				Overrides:  overrides,
			})
		},
	}
)

// Execute runs the trainpi CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Shared by every subcommand that talks to the motor.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file, the default one may be absent")
	rootCmd.PersistentFlags().
		StringVarP(&overrides.Device, "device", "d", "", "device driver: auto, buildhat, mock or none")
	rootCmd.PersistentFlags().
		StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(pulseCmd, configCmd)
}
