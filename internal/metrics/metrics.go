package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decisions counts likes and passes by outcome: like, pass, match, duplicate.
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imperfect_decisions_total",
		Help: "Likes and passes recorded, by outcome",
	}, []string{"outcome"})

	// MatchesCreated counts new matches. Reused matches are not counted.
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imperfect_matches_created_total",
		Help: "Total number of matches created",
	})

	// DiscoveryCandidates observes how many cards each discovery call returned.
	DiscoveryCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imperfect_discovery_candidates",
		Help:    "Number of profile cards returned per discovery request",
		Buckets: []float64{0, 1, 5, 10, 20, 50},
	})

	// PhotoVerdicts counts photo validation results by verdict: approved, rejected, failed.
	PhotoVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imperfect_photo_verdicts_total",
		Help: "Photo validation results, by verdict",
	}, []string{"verdict"})

	// RPCLatency records gRPC handler latency by method and status code.
	RPCLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imperfect_rpc_latency_seconds",
		Help:    "gRPC handler latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// ObserveRPC records the latency of one RPC.
func ObserveRPC(method, code string, start time.Time) {
	RPCLatency.WithLabelValues(method, code).Observe(time.Since(start).Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
