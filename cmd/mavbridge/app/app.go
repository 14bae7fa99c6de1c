// Package app wires the mavbridge daemon command.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skyfield-io/mavbridge/cmd/mavbridge/app/options"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// NewBridgeCommand creates the root cobra command.
func NewBridgeCommand() *cobra.Command {
	opts := options.NewOptions()

	cmd := &cobra.Command{
		Use:   "mavbridge",
		Short: "Vehicle telemetry and command bridge",
		Long: `mavbridge connects a vehicle link to a line-delimited JSON channel on
stdio: telemetry snapshots and command results go out on stdout, command
requests come in on stdin. An MQTT mirror and a metrics endpoint are
optional.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
		Args: cobra.NoArgs,
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, opts *options.Options) error {
	log.Init(opts.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	b, err := cfg.NewBridge()
	if err != nil {
		return err
	}

	return b.Run(ctx)
}

// Run executes the root command, exiting non-zero on error.
func Run() {
	if err := NewBridgeCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
