package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/interrogator/internal/notify"
	"github.com/hamed0406/interrogator/internal/probe"
)

const sendTimeout = 5 * time.Second

type AlerterConfig struct {
	Target          string // shown in messages; never the DSN
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter watches probe outcomes and notifies when the database goes down or
// comes back. It holds the last known state in memory only.
type Alerter struct {
	logger   *zap.Logger
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time

	mu         sync.Mutex
	known      bool
	up         bool
	lastSentAt time.Time
}

func NewAlerter(logger *zap.Logger, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		logger:   logger,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Observe(ctx context.Context, o probe.Outcome) {
	title, text, send := a.evaluate(o)
	if !send {
		return
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	// Best-effort: a failed notification never affects probing.
	if err := a.notifier.Send(sctx, title, text); err != nil {
		a.logger.Warn("alert_send_error", zap.String("title", title), zap.Error(err))
		return
	}
	a.logger.Info("alert_sent", zap.String("title", title), zap.Uint64("cycle", o.Seq))
}

// evaluate updates the tracked state and decides whether to notify.
func (a *Alerter) evaluate(o probe.Outcome) (title, text string, send bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	up := o.OK()
	now := a.now()

	// The first outcome only seeds state, unless it is already an outage.
	first := !a.known
	changed := first || a.up != up
	a.known = true
	a.up = up
	if !changed {
		return "", "", false
	}

	// Cooldown only matters for DOWN alerts (suppresses flapping).
	cooled := a.lastSentAt.IsZero() || now.Sub(a.lastSentAt) >= a.cfg.Cooldown
	downAlert := !up && cooled
	recoveryAlert := up && !first && a.cfg.AlertOnRecovery
	if !downAlert && !recoveryAlert {
		return "", "", false
	}
	a.lastSentAt = now

	if up {
		return "🟢 Database RECOVERED", fmt.Sprintf(
			"Target: %s\nCycle: %d\nLatency: %d ms\nChecked: %s",
			a.cfg.Target, o.Seq, o.Record.DurationMS, o.Record.End.Format(time.RFC3339),
		), true
	}
	reason := "unknown"
	if o.Err != nil {
		reason = o.Err.Error()
	}
	return "🔴 Database DOWN", fmt.Sprintf(
		"Target: %s\nCycle: %d\nError: %s\nChecked: %s",
		a.cfg.Target, o.Seq, reason, o.Start.Format(time.RFC3339),
	), true
}
