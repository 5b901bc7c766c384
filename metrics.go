package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics holds this daemon's private metric set: a gauge tracking the
// live route count and counters for the events operators care about when
// diagnosing a flapping network. The set is private (not the global
// registry) so that running several daemons in one test binary never
// collide on metric names.
type Metrics struct {
	set *metrics.Set

	routeCountBits uint64

	triggeredUpdates *metrics.Counter
	framesDiscarded  *metrics.Counter
	routesCollected  *metrics.Counter

	server *http.Server
}

// NewMetrics builds a fresh, unregistered metric set.
func NewMetrics() *Metrics {
	set := metrics.NewSet()
	m := &Metrics{set: set}

	set.NewGauge("ripd_route_count", func() float64 {
		return math.Float64frombits(atomic.LoadUint64(&m.routeCountBits))
	})
	m.triggeredUpdates = set.NewCounter("ripd_triggered_updates_total")
	m.framesDiscarded = set.NewCounter("ripd_frames_discarded_total")
	m.routesCollected = set.NewCounter("ripd_routes_collected_total")

	return m
}

// Set records the current routing-table size.
func (m *Metrics) Set(routeCount float64) {
	atomic.StoreUint64(&m.routeCountBits, math.Float64bits(routeCount))
}

// Serve exposes the set on addr under /metrics until ctx is cancelled. It
// is only called when RIPD_METRICS_ADDR is set; by default the daemon
// opens no listening socket at all.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m.set.WritePrometheus(w)
	})

	m.server = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- m.server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	}
}
