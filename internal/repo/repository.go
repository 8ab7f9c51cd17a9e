package repo

import (
	"context"

	"github.com/hamed0406/interrogator/internal/domain"
	"github.com/hamed0406/interrogator/internal/probe"
)

// Ports (interfaces) between the probe loop and wherever results end up.

// RecordSink durably stores successful probe records, in order.
type RecordSink interface {
	Write(ctx context.Context, rec domain.Record) error
}

// OutcomeStore keeps recent probe outcomes for inspection.
type OutcomeStore interface {
	Append(ctx context.Context, o probe.Outcome) error
	Recent(ctx context.Context, n int) ([]probe.Outcome, error)
	Totals(ctx context.Context) (Totals, error)
}
