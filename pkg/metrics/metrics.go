// Package metrics defines the Prometheus collectors for queries and index
// builds, and an HTTP endpoint for scraping them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query kinds used as label values.
const (
	KindSearch  = "search"
	KindSuggest = "suggest"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	QueriesTotal   *prometheus.CounterVec
	QueryLatency   *prometheus.HistogramVec
	ResultsCount   *prometheus.HistogramVec
	CommitsTotal   prometheus.Counter
	BuildsTotal    *prometheus.CounterVec
	BuildDuration  prometheus.Histogram
	IndexedRecords prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfserve_queries_total",
				Help: "Queries served by kind (search, suggest) and outcome (hit, zero_result).",
			},
			[]string{"kind", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfserve_query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
			},
			[]string{"kind"},
		),
		ResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfserve_query_results",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 3, 8, 25, 100, 1000},
			},
			[]string{"kind"},
		),
		CommitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shelfserve_commits_total",
				Help: "Search terms committed to the popularity tracker.",
			},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfserve_index_builds_total",
				Help: "Index builds by status (ok, rejected).",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shelfserve_index_build_seconds",
				Help:    "Index build time in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		IndexedRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfserve_indexed_records",
				Help: "Records in the live index.",
			},
		),
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.ResultsCount,
		m.CommitsTotal,
		m.BuildsTotal,
		m.BuildDuration,
		m.IndexedRecords,
	)
	return m
}

// ObserveQuery records one search or suggest call.
func (m *Metrics) ObserveQuery(kind string, elapsed time.Duration, results int) {
	if m == nil {
		return
	}
	outcome := "hit"
	if results == 0 {
		outcome = "zero_result"
	}
	m.QueriesTotal.WithLabelValues(kind, outcome).Inc()
	m.QueryLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.ResultsCount.WithLabelValues(kind).Observe(float64(results))
}

// ObserveCommit records one committed search term.
func (m *Metrics) ObserveCommit() {
	if m == nil {
		return
	}
	m.CommitsTotal.Inc()
}

// ObserveBuild records an index build. records is the live record count
// after the build, which is unchanged when err is non-nil.
func (m *Metrics) ObserveBuild(elapsed time.Duration, records int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.BuildsTotal.WithLabelValues("rejected").Inc()
		return
	}
	m.BuildsTotal.WithLabelValues("ok").Inc()
	m.BuildDuration.Observe(elapsed.Seconds())
	m.IndexedRecords.Set(float64(records))
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
