package repo

import "time"

// Totals summarises every outcome seen since the process started.
type Totals struct {
	Succeeded   uint64     `json:"succeeded"`
	Failed      uint64     `json:"failed"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}
