package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var f probeFlags
	cmd := &cobra.Command{
		Use:           "interrogator",
		Short:         "Queries a database on a schedule and records the round trip time to a CSV file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.Resolve(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runProbe(ctx, cfg, cmd.OutOrStdout())
		},
	}
	f.AddFlags(cmd)
	cmd.AddCommand(newPreflightCmd(&f))
	return cmd
}
