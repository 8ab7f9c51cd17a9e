package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hamed0406/interrogator/internal/config"
	"github.com/hamed0406/interrogator/internal/database"
	"github.com/hamed0406/interrogator/internal/httpapi"
	"github.com/hamed0406/interrogator/internal/logging"
	"github.com/hamed0406/interrogator/internal/metrics"
	"github.com/hamed0406/interrogator/internal/notify"
	"github.com/hamed0406/interrogator/internal/probe"
	"github.com/hamed0406/interrogator/internal/repo/file"
	"github.com/hamed0406/interrogator/internal/repo/memory"
	"github.com/hamed0406/interrogator/internal/scheduler"
)

// runProbe wires everything together and blocks until ctx is cancelled.
// Only startup failures are returned.
func runProbe(ctx context.Context, cfg config.Config, console io.Writer) error {
	logger, err := logging.NewLogger(cfg.LogDir, console)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	query, err := config.ReadQuery(cfg.File)
	if err != nil {
		logger.Error("sql_read_error", zap.String("file", cfg.File), zap.Error(err))
		return err
	}
	logger.Info("sql_read", zap.String("file", cfg.File), zap.Int("bytes", len(query)))

	sess, drv, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	sink, err := file.Open(cfg.Output)
	if err != nil {
		logger.Error("output_open_error", zap.String("output", cfg.Output), zap.Error(err))
		return err
	}
	defer sink.Close()

	store := memory.New(memory.DefaultCapacity)
	m := metrics.New()
	observers := []scheduler.Observer{m, store}
	target := database.Describe(cfg.ConnectString)
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		observers = append(observers, scheduler.NewAlerter(logger, slack, scheduler.AlerterConfig{
			Target:          target,
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
		}))
		logger.Info("alerts_enabled", zap.Duration("cooldown", cfg.AlertCooldown))
	}

	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, store, m.Handler(), target, cfg.Period)
		go func() {
			if err := api.Serve(ctx, cfg.StatusAddr); err != nil {
				logger.Error("status_serve_error", zap.String("addr", cfg.StatusAddr), zap.Error(err))
			}
		}()
	}

	logger.Info("polling_setup",
		zap.String("driver", drv),
		zap.String("output", sink.Path()),
		zap.Duration("period", cfg.Period),
	)
	checker := probe.NewSQLChecker(sess, query, cfg.QueryTimeout)
	scheduler.NewRunner(logger, checker, sink, cfg.Period, cfg.Immediate, observers...).Run(ctx)
	return nil
}

// connect builds the DSN and acquires the long-lived connection.
func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*database.Session, string, error) {
	drv := cfg.Driver
	if drv == "auto" {
		d, err := database.DetectDriver(cfg.ConnectString)
		if err != nil {
			return nil, "", err
		}
		drv = d
	}
	dsn, err := database.DSN(drv, cfg.ConnectString, cfg.Username, cfg.Password)
	if err != nil {
		return nil, "", err
	}

	logger.Info("db_connecting", zap.String("driver", drv), zap.String("target", database.Describe(cfg.ConnectString)))
	sess, err := database.Open(ctx, drv, dsn, logger)
	if err != nil {
		logger.Error("db_connect_error", zap.String("driver", drv), zap.Error(err))
		return nil, "", fmt.Errorf("connect to %s: %w", database.Describe(cfg.ConnectString), err)
	}
	logger.Info("db_connected", zap.String("driver", drv))
	return sess, drv, nil
}
