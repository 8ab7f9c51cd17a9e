package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hamed0406/interrogator/internal/domain"
	"github.com/hamed0406/interrogator/internal/repo"
)

var _ repo.RecordSink = (*Sink)(nil)

// Sink appends one CSV line per record to a file. The file is write-only
// from this process: nothing here reads, rewrites or truncates it.
type Sink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens path for appending, creating it and its parent directory.
func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &Sink{path: path, f: f}, nil
}

func (s *Sink) Path() string { return s.path }

// Write appends rec as a single write call so concurrent writers never
// interleave partial lines.
func (s *Sink) Write(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := []byte(rec.Line())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("write %s: sink closed", s.path)
	}
	n, err := s.f.Write(line)
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if n != len(line) {
		return fmt.Errorf("write %s: short write (%d of %d bytes)", s.path, n, len(line))
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
