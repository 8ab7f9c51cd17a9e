package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/interrogator/internal/probe"
)

// Probe holds the collectors for one probe loop on its own registry.
type Probe struct {
	Registry    *prometheus.Registry
	Total       *prometheus.CounterVec
	Duration    prometheus.Histogram
	LastSuccess prometheus.Gauge
	SinkErrors  prometheus.Counter
}

func New() *Probe {
	p := &Probe{
		Registry: prometheus.NewRegistry(),
		Total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interrogator_probe_total",
				Help: "Probe cycles by result",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "interrogator_probe_duration_seconds",
				Help:    "Round trip of successful probe queries",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "interrogator_probe_last_success_timestamp_seconds",
				Help: "Unix time the last successful probe returned",
			},
		),
		SinkErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "interrogator_sink_write_errors_total",
				Help: "Records that could not be appended to the output file",
			},
		),
	}
	p.Registry.MustRegister(p.Total, p.Duration, p.LastSuccess, p.SinkErrors)
	// Pre-create both series so a fresh process exports zeros.
	p.Total.WithLabelValues("success")
	p.Total.WithLabelValues("failure")
	return p
}

func (p *Probe) Observe(ctx context.Context, o probe.Outcome) {
	if !o.OK() {
		p.Total.WithLabelValues("failure").Inc()
		return
	}
	p.Total.WithLabelValues("success").Inc()
	p.Duration.Observe(float64(o.Record.DurationMS) / 1000)
	p.LastSuccess.Set(float64(o.Record.End.UnixMilli()) / 1000)
	if o.SinkErr != nil {
		p.SinkErrors.Inc()
	}
}

func (p *Probe) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}
