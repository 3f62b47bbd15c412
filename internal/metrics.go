package internal

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts searches and toggles of one process. A nil *Metrics
// records nothing.
type Metrics struct {
	reg      *prometheus.Registry
	toggles  *prometheus.CounterVec
	searches *prometheus.CounterVec
	matches  prometheus.Counter
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "highlights",
			Name:      "toggles_total",
			Help:      "Highlight toggles by outcome.",
		}, []string{"outcome"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "highlights",
			Name:      "searches_total",
			Help:      "Searches by status.",
		}, []string{"status"}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "highlights",
			Name:      "search_matches_total",
			Help:      "Occurrences found by searches.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "highlights",
			Name:      "operation_duration_seconds",
			Help:      "Search and toggle duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.reg.MustRegister(m.toggles, m.searches, m.matches, m.duration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveToggle(res ToggleResult, d time.Duration) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(res.Outcome.String()).Inc()
	m.duration.WithLabelValues("toggle").Observe(d.Seconds())
}

func (m *Metrics) ObserveSearch(files []FileResult, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.searches.WithLabelValues(status).Inc()
	for _, f := range files {
		for _, r := range f.Results {
			m.matches.Add(float64(r.MatchCount()))
		}
	}
	m.duration.WithLabelValues("search").Observe(d.Seconds())
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
