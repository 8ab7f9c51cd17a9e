package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/interrogator/internal/probe"
	"github.com/hamed0406/interrogator/internal/repo"
)

const DefaultPeriod = 60 * time.Second

var errNoRecord = errors.New("probe returned neither record nor error")

// Observer is told about every finished cycle, after the sink write.
type Observer interface {
	Observe(ctx context.Context, o probe.Outcome)
}

// Runner fires the probe on a fixed-rate ticker and records each outcome.
// Cycles run one at a time on the Run goroutine, so the connection and the
// sink never see overlapping cycles. Ticks that arrive while a cycle is still
// running are coalesced by the ticker and the overrun is logged.
type Runner struct {
	Logger    *zap.Logger
	Checker   probe.Checker
	Sink      repo.RecordSink
	Period    time.Duration
	Immediate bool
	Observers []Observer

	seq uint64
}

func NewRunner(
	logger *zap.Logger,
	checker probe.Checker,
	sink repo.RecordSink,
	period time.Duration,
	immediate bool,
	observers ...Observer,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Runner{
		Logger:    logger,
		Checker:   checker,
		Sink:      sink,
		Period:    period,
		Immediate: immediate,
		Observers: observers,
	}
}

// Run arms the ticker and probes until ctx is cancelled. The first cycle
// fires one period after Run is called unless Immediate is set.
func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.Period)
	defer t.Stop()
	r.Logger.Info("polling_armed",
		zap.Duration("period", r.Period),
		zap.Bool("immediate", r.Immediate),
	)

	if r.Immediate {
		r.timed(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("runner_stopped", zap.Uint64("cycles", r.seq))
			return
		case <-t.C:
			r.timed(ctx)
		}
	}
}

func (r *Runner) timed(ctx context.Context) {
	began := time.Now()
	out := r.runOnce(ctx)
	if took := time.Since(began); took > r.Period {
		r.Logger.Warn("probe_overrun",
			zap.Uint64("cycle", out.Seq),
			zap.Duration("took", took),
			zap.Duration("period", r.Period),
			zap.Int("ticks_dropped", int(took/r.Period)-1),
		)
	}
}

// runOnce executes one cycle and returns its outcome. Every cycle ends in
// exactly one of probe_ok, probe_error or sink_write_error.
func (r *Runner) runOnce(ctx context.Context) probe.Outcome {
	r.seq++
	seq := r.seq
	r.Logger.Info("probe_sending", zap.Uint64("cycle", seq))

	out := r.Checker.Check(ctx, seq)
	out.Seq = seq
	if out.Err == nil && out.Record == nil {
		out.Err = errNoRecord
	}

	if out.Err != nil {
		r.Logger.Error("probe_error",
			zap.Uint64("cycle", seq),
			zap.Time("start", out.Start),
			zap.Error(out.Err),
		)
	} else {
		// A cycle that completed keeps its record even if shutdown began mid-query.
		if err := r.Sink.Write(context.WithoutCancel(ctx), *out.Record); err != nil {
			out.SinkErr = err
			r.Logger.Error("sink_write_error",
				zap.Uint64("cycle", seq),
				zap.Int64("duration_ms", out.Record.DurationMS),
				zap.Error(err),
			)
		} else {
			r.Logger.Info("probe_ok",
				zap.Uint64("cycle", seq),
				zap.Int("rows", out.Rows),
				zap.Int64("duration_ms", out.Record.DurationMS),
			)
		}
	}

	for _, o := range r.Observers {
		o.Observe(ctx, out)
	}
	return out
}
