package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/interrogator/internal/domain"
	"github.com/hamed0406/interrogator/internal/probe"
)

func okOutcome(seq uint64, start time.Time) probe.Outcome {
	rec := domain.NewRecord(start, 5*time.Millisecond)
	return probe.Outcome{Seq: seq, Start: rec.Start, Record: &rec, Rows: 1}
}

func TestMemoryStore_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(3)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := uint64(1); i <= 5; i++ {
		if err := s.Append(ctx, okOutcome(i, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 held outcomes, got %d", len(got))
	}
	for i, want := range []uint64{5, 4, 3} {
		if got[i].Seq != want {
			t.Fatalf("position %d: want seq %d, got %d", i, want, got[i].Seq)
		}
	}

	two, _ := s.Recent(ctx, 2)
	if len(two) != 2 || two[0].Seq != 5 {
		t.Fatalf("Recent(2) wrong: %+v", two)
	}
}

func TestMemoryStore_PartialRing(t *testing.T) {
	ctx := context.Background()
	s := New(10)
	_ = s.Append(ctx, okOutcome(1, time.Now()))

	got, _ := s.Recent(ctx, 5)
	if len(got) != 1 || got[0].Seq != 1 {
		t.Fatalf("want single outcome, got %+v", got)
	}
}

func TestMemoryStore_Totals(t *testing.T) {
	ctx := context.Background()
	s := New(0)
	now := time.Now().UTC()

	s.Observe(ctx, okOutcome(1, now))
	s.Observe(ctx, probe.Outcome{Seq: 2, Start: now.Add(time.Second), Err: errors.New("ORA-12541: no listener")})
	s.Observe(ctx, okOutcome(3, now.Add(2*time.Second)))

	tot, err := s.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if tot.Succeeded != 2 || tot.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", tot)
	}
	if tot.LastError != "ORA-12541: no listener" {
		t.Fatalf("unexpected last error %q", tot.LastError)
	}
	if tot.LastSuccess == nil || tot.LastFailure == nil || !tot.LastSuccess.After(*tot.LastFailure) {
		t.Fatalf("unexpected timestamps: %+v", tot)
	}
}
