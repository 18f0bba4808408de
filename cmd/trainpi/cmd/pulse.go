package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/trainpi/internal/service/pulse"
)

var (
	// pulseDuration is how long the motor runs.
	pulseDuration time.Duration
	// pulseSpeed replaces the configured default speed when positive.
	pulseSpeed int

	// pulseCmd runs the motor once without the panel.
	pulseCmd = &cobra.Command{
		Use:   "pulse",
		Short: "Run the motor for a few seconds and stop it.",
		Long: `Connects to the motor, starts it at the default speed, waits and stops it.
Prints how long the motor ran. Ctrl-C stops the motor early.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := overrides
			opts.Speed = pulseSpeed

			return pulse.Run(ctx, &pulse.Options{
				ConfigPath: configPath,
				Overrides:  opts,
				Duration:   pulseDuration,
				Out:        cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	pulseCmd.Flags().DurationVar(&pulseDuration, "duration", pulse.DefaultDuration, "how long the motor runs")
	pulseCmd.Flags().IntVar(&pulseSpeed, "speed", 0, "motor speed in percent, 0 keeps the configured default")
}
