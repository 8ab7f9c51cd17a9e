package probe

import (
	"context"
	"time"

	"github.com/hamed0406/interrogator/internal/domain"
)

// Outcome is the unified result of a single probe cycle.
//
// Exactly one of Record and Err is set. Rows is the number of rows the probe
// query returned and is only meaningful on success. SinkErr is filled in by
// the runner when a successful record could not be persisted.
type Outcome struct {
	Seq     uint64
	Start   time.Time
	Record  *domain.Record
	Rows    int
	Err     error
	SinkErr error
}

// OK reports whether the probe completed and produced a record.
func (o Outcome) OK() bool { return o.Err == nil && o.Record != nil }

// Checker runs one probe cycle.
type Checker interface {
	Check(ctx context.Context, seq uint64) Outcome
}
