package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/interrogator/internal/config"
	"github.com/hamed0406/interrogator/internal/probe"
)

const preflightTimeout = 30 * time.Second

func newPreflightCmd(f *probeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check configuration, the SQL file and the connection, then run the query once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := f.Resolve(cmd)
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			ok(out, "configuration valid")

			ctx, cancel := context.WithTimeout(cmd.Context(), preflightTimeout)
			defer cancel()
			return preflight(ctx, cfg, out)
		},
	}
}

func preflight(ctx context.Context, cfg config.Config, out io.Writer) error {
	query, err := config.ReadQuery(cfg.File)
	if err != nil {
		return err
	}
	ok(out, fmt.Sprintf("read %d bytes of SQL from %s", len(query), cfg.File))

	sess, drv, err := connect(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer sess.Close()
	ok(out, "connected using "+drv)

	o := probe.NewSQLChecker(sess, query, cfg.QueryTimeout).Check(ctx, 1)
	if !o.OK() {
		return fmt.Errorf("probe query: %w", o.Err)
	}
	ok(out, fmt.Sprintf("probe query returned %d row(s) in %d ms", o.Rows, o.Record.DurationMS))
	ok(out, "preflight passed, output would go to "+cfg.Output)
	return nil
}

func ok(w io.Writer, msg string) { fmt.Fprintln(w, "✔", msg) }
