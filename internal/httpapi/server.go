package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/interrogator/internal/probe"
	"github.com/hamed0406/interrogator/internal/repo"
)

const maxRecent = 100

// Server exposes the probe loop's recent outcomes and metrics read-only.
type Server struct {
	Logger   *zap.Logger
	Outcomes repo.OutcomeStore
	Metrics  http.Handler
	Target   string
	Period   time.Duration
}

func NewServer(l *zap.Logger, store repo.OutcomeStore, metrics http.Handler, target string, period time.Duration) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Outcomes: store, Metrics: metrics, Target: target, Period: period}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/recent", s.handleRecent)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("status_shutdown_error", zap.Error(err))
		}
	}()

	s.Logger.Info("status_listen", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// outcomeView is the JSON shape of one cycle.
type outcomeView struct {
	Cycle      uint64     `json:"cycle"`
	OK         bool       `json:"ok"`
	Start      time.Time  `json:"start"`
	End        *time.Time `json:"end,omitempty"`
	DurationMS *int64     `json:"duration_ms,omitempty"`
	Rows       *int       `json:"rows,omitempty"`
	Error      string     `json:"error,omitempty"`
	SinkError  string     `json:"sink_error,omitempty"`
}

func view(o probe.Outcome) outcomeView {
	v := outcomeView{Cycle: o.Seq, OK: o.OK(), Start: o.Start}
	if o.Record != nil && o.Err == nil {
		end, ms, rows := o.Record.End, o.Record.DurationMS, o.Rows
		v.End, v.DurationMS, v.Rows = &end, &ms, &rows
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	if o.SinkErr != nil {
		v.SinkError = o.SinkErr.Error()
	}
	return v
}

type statusView struct {
	Target string       `json:"target"`
	Period string       `json:"period"`
	Up     *bool        `json:"up"` // null until the first cycle
	Totals repo.Totals  `json:"totals"`
	Last   *outcomeView `json:"last,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	totals, err := s.Outcomes.Totals(r.Context())
	if err != nil {
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}
	last, err := s.Outcomes.Recent(r.Context(), 1)
	if err != nil {
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}

	out := statusView{Target: s.Target, Period: s.Period.String(), Totals: totals}
	if len(last) == 1 {
		v := view(last[0])
		out.Last = &v
		out.Up = &v.OK
	}
	writeJSON(w, out)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := 20
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "bad n", http.StatusBadRequest)
			return
		}
		n = min(parsed, maxRecent)
	}
	rows, err := s.Outcomes.Recent(r.Context(), n)
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	out := make([]outcomeView, 0, len(rows))
	for _, o := range rows {
		out = append(out, view(o))
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
