package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Record is one successful probe: when the query was sent, when it returned
// and the round trip in milliseconds.
type Record struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMS int64     `json:"duration_ms"`
}

// NewRecord builds a Record from the dispatch time and the measured elapsed
// time. Both timestamps are truncated to the millisecond before the duration
// is derived, so DurationMS always equals End-Start as written.
func NewRecord(start time.Time, elapsed time.Duration) Record {
	if elapsed < 0 {
		elapsed = 0
	}
	s := start.UTC().Truncate(time.Millisecond)
	e := start.UTC().Add(elapsed).Truncate(time.Millisecond)
	return Record{
		Start:      s,
		End:        e,
		DurationMS: e.Sub(s).Milliseconds(),
	}
}

// Line renders the record as "start,end,durationMs\n".
func (r Record) Line() string {
	return r.Start.UTC().Format(TimeLayout) + "," +
		r.End.UTC().Format(TimeLayout) + "," +
		strconv.FormatInt(r.DurationMS, 10) + "\n"
}

// ParseRecord reads a single sink line back into a Record.
func ParseRecord(line string) (Record, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(parts) != 3 {
		return Record{}, fmt.Errorf("record: want 3 fields, got %d", len(parts))
	}
	start, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Record{}, fmt.Errorf("record start: %w", err)
	}
	end, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return Record{}, fmt.Errorf("record end: %w", err)
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("record duration: %w", err)
	}
	return Record{Start: start.UTC(), End: end.UTC(), DurationMS: ms}, nil
}
