// Package metrics exposes entrance counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Arrival results.
const (
	ArrivalAccepted   = "accepted"
	ArrivalSuppressed = "suppressed"
	ArrivalUnknown    = "unknown"
	ArrivalNoSong     = "no_song"
	ArrivalNoMatch    = "no_match"
)

// Restore paths.
const (
	RestoreDirect   = "direct"
	RestoreFallback = "fallback"
	RestoreSkipped  = "skipped"
	RestoreError    = "error"
)

// Metrics holds the entrance collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	arrivals   *prometheus.CounterVec
	playbacks  *prometheus.CounterVec
	restores   *prometheus.CounterVec
	queueDepth prometheus.Gauge
	dbQueries  *prometheus.HistogramVec
	dbErrors   *prometheus.CounterVec
}

// New creates and registers the entrance collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		arrivals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entrance",
			Name:      "arrivals_total",
			Help:      "Identified DHCP arrivals by outcome.",
		}, []string{"result"}),
		playbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entrance",
			Name:      "playbacks_total",
			Help:      "Entrance songs played by outcome.",
		}, []string{"result"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entrance",
			Name:      "restores_total",
			Help:      "Playback restores by path taken.",
		}, []string{"path"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "entrance",
			Name:      "queue_depth",
			Help:      "Entrance requests waiting to be played.",
		}),
		dbQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "entrance",
			Name:      "db_query_duration_seconds",
			Help:      "Device store query latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation", "table"}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entrance",
			Name:      "db_errors_total",
			Help:      "Device store query errors.",
		}, []string{"operation"}),
	}
	m.registry.MustRegister(m.arrivals, m.playbacks, m.restores, m.queueDepth, m.dbQueries, m.dbErrors)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Arrival counts one identified arrival.
func (m *Metrics) Arrival(result string) {
	if m == nil {
		return
	}
	m.arrivals.WithLabelValues(result).Inc()
}

// Playback counts one finished entrance song.
func (m *Metrics) Playback(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.playbacks.WithLabelValues(result).Inc()
}

// Restore counts one restore attempt.
func (m *Metrics) Restore(path string) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(path).Inc()
}

// QueueDepth sets the current queue length.
func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// DBQuery records one store query.
func (m *Metrics) DBQuery(operation, table string, d time.Duration, err error) {
	if m == nil {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.dbQueries.WithLabelValues(operation, table).Observe(d.Seconds())
	if err != nil {
		m.dbErrors.WithLabelValues(operation).Inc()
	}
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

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
