package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hamed0406/interrogator/internal/domain"
)

// Querier is the slice of database/sql the probe needs. *sql.DB, *sql.Conn
// and *database.Session all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLChecker times a fixed query against a Querier.
type SQLChecker struct {
	DB      Querier
	Query   string
	Timeout time.Duration // zero means no per-query deadline

	now func() time.Time
}

func NewSQLChecker(db Querier, query string, timeout time.Duration) *SQLChecker {
	return &SQLChecker{DB: db, Query: query, Timeout: timeout, now: time.Now}
}

func (c *SQLChecker) Check(ctx context.Context, seq uint64) Outcome {
	now := c.now
	if now == nil {
		now = time.Now
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := now()
	rows, err := c.run(ctx)
	elapsed := now().Sub(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && c.Timeout > 0 {
			err = fmt.Errorf("query timed out after %s: %w", c.Timeout, err)
		}
		return Outcome{Seq: seq, Start: start.UTC(), Err: err}
	}

	rec := domain.NewRecord(start, elapsed)
	return Outcome{Seq: seq, Start: rec.Start, Record: &rec, Rows: rows}
}

// run executes the query and drains the result set so the measured time
// covers the full round trip, not just the first packet.
func (c *SQLChecker) run(ctx context.Context) (int, error) {
	rows, err := c.DB.QueryContext(ctx, c.Query)
	if err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("read rows: %w", err)
	}
	if err := rows.Close(); err != nil {
		return n, fmt.Errorf("close rows: %w", err)
	}
	return n, nil
}
