package file

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hamed0406/interrogator/internal/domain"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestSink_AppendsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := domain.NewRecord(base.Add(time.Duration(i)*time.Minute), time.Duration(i)*time.Millisecond)
		if err := s.Write(context.Background(), rec); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "2024-05-01T10:00:00.000Z,2024-05-01T10:00:00.000Z,0" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	var prev time.Time
	for _, l := range lines {
		rec, err := domain.ParseRecord(l)
		if err != nil {
			t.Fatalf("parse %q: %v", l, err)
		}
		if rec.Start.Before(prev) {
			t.Fatalf("records out of order at %q", l)
		}
		prev = rec.Start
	}
}

func TestSink_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rec := domain.NewRecord(time.Now(), time.Millisecond)
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := s.Write(context.Background(), rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
		_ = s.Close()
	}
	if n := len(readLines(t, path)); n != 2 {
		t.Fatalf("want 2 lines after reopen, got %d", n)
	}
}

func TestSink_ConcurrentWritersDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	const writers, each = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_ = s.Write(context.Background(), domain.NewRecord(time.Now(), 3*time.Millisecond))
			}
		}()
	}
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != writers*each {
		t.Fatalf("want %d lines, got %d", writers*each, len(lines))
	}
	for _, l := range lines {
		if _, err := domain.ParseRecord(l); err != nil {
			t.Fatalf("corrupt line %q: %v", l, err)
		}
	}
}

func TestSink_WriteAfterCloseFails(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "out.csv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.Close()
	if err := s.Write(context.Background(), domain.NewRecord(time.Now(), 0)); err == nil {
		t.Fatalf("want error writing to closed sink")
	}
}
