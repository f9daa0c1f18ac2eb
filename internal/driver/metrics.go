package driver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steelbatch/orderbook-engine/internal/applog"
)

var (
	batchesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchengine_batches_processed_total",
		Help: "Total number of batches successfully validated and matched.",
	})

	fillsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchengine_fills_total",
		Help: "Total number of fills executed across all processed batches.",
	})

	ordersDroppedExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batchengine_orders_dropped_expired_total",
		Help: "Total number of new orders silently dropped for having already expired.",
	})

	matchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batchengine_match_duration_seconds",
		Help:    "Wall-clock time spent inside MatchOrders per batch.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(batchesProcessedTotal)
	prometheus.MustRegister(fillsTotal)
	prometheus.MustRegister(ordersDroppedExpiredTotal)
	prometheus.MustRegister(matchDuration)
}

// StartServer serves the registered metrics at /metrics on addr in the
// background. The caller owns the returned *http.Server's lifetime.
func StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	logger := applog.WithComponent("metrics")
	go func() {
		logger.Info().Str("addr", addr).Msg("serving prometheus metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}
