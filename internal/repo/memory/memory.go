package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/interrogator/internal/probe"
	"github.com/hamed0406/interrogator/internal/repo"
)

const DefaultCapacity = 100

var _ repo.OutcomeStore = (*Store)(nil)

// Store keeps the most recent outcomes in a fixed-size ring plus running
// totals. Nothing is persisted.
type Store struct {
	mu     sync.RWMutex
	ring   []probe.Outcome
	next   int
	filled bool
	totals repo.Totals
}

func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{ring: make([]probe.Outcome, capacity)}
}

func (m *Store) Append(ctx context.Context, o probe.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ring[m.next] = o
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.filled = true
	}

	at := o.Start
	if o.OK() {
		m.totals.Succeeded++
		at = o.Record.End
		m.totals.LastSuccess = &at
	} else {
		m.totals.Failed++
		m.totals.LastFailure = &at
		if o.Err != nil {
			m.totals.LastError = o.Err.Error()
		}
	}
	return nil
}

// Recent returns up to n outcomes, newest first. n <= 0 returns all held.
func (m *Store) Recent(ctx context.Context, n int) ([]probe.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.filled {
		size = len(m.ring)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]probe.Outcome, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}

func (m *Store) Totals(ctx context.Context) (repo.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := m.totals
	if t.LastSuccess != nil {
		v := *t.LastSuccess
		t.LastSuccess = &v
	}
	if t.LastFailure != nil {
		v := *t.LastFailure
		t.LastFailure = &v
	}
	return t, nil
}

// Observe lets the store sit directly in the runner's observer list.
func (m *Store) Observe(ctx context.Context, o probe.Outcome) {
	_ = m.Append(ctx, o)
}
