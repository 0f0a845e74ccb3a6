// Package metrics instruments the dashboard coordinator with Prometheus
// collectors and optionally serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdash"

// Completion outcomes
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// Recorder holds the coordinator's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	dispatches    *prometheus.CounterVec
	completions   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	provenance    *prometheus.CounterVec
	cacheClears   *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// NewRecorder creates the collectors and registers them with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "News fetches issued, by trigger.",
		}, []string{"origin"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Fetch completions, by whether they were applied, stale or failed.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed requests, by failure kind.",
		}, []string{"kind"}),
		provenance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Applied results, by whether the API served them from cache.",
		}, []string{"from_cache"}),
		cacheClears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_clears_total",
			Help:      "Cache invalidation requests, by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of news fetches, including failed ones.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.dispatches, r.completions, r.failures, r.provenance, r.cacheClears, r.fetchDuration)
	return r
}

// Dispatched counts a fetch sent to the API, labelled by what triggered it
func (r *Recorder) Dispatched(origin string) {
	if r == nil {
		return
	}
	r.dispatches.WithLabelValues(origin).Inc()
}

// Completed counts a finished fetch by outcome
func (r *Recorder) Completed(outcome string) {
	if r == nil {
		return
	}
	r.completions.WithLabelValues(outcome).Inc()
}

// Failed counts a failed fetch by failure kind
func (r *Recorder) Failed(kind string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(kind).Inc()
}

// Served counts an applied page by whether the server answered from its cache
func (r *Recorder) Served(fromCache bool) {
	if r == nil {
		return
	}
	label := "false"
	if fromCache {
		label = "true"
	}
	r.provenance.WithLabelValues(label).Inc()
}

// CacheCleared counts a cache invalidation request by outcome
func (r *Recorder) CacheCleared(ok bool) {
	if r == nil {
		return
	}
	label := "ok"
	if !ok {
		label = "error"
	}
	r.cacheClears.WithLabelValues(label).Inc()
}

// ObserveFetch records how long one fetch took
func (r *Recorder) ObserveFetch(d time.Duration) {
	if r == nil {
		return
	}
	r.fetchDuration.Observe(d.Seconds())
}

// Dispatches exposes the dispatch counter for inspection
func (r *Recorder) Dispatches() *prometheus.CounterVec { return r.dispatches }

// Completions exposes the completion counter for inspection
func (r *Recorder) Completions() *prometheus.CounterVec { return r.completions }

// CacheClears exposes the cache-clear counter for inspection
func (r *Recorder) CacheClears() *prometheus.CounterVec { return r.cacheClears }

// Serve exposes the collectors of g on addr at /metrics until ctx is done
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
