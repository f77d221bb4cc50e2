package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StartMetricsServer starts an http server on the given address exposing
// prometheus metrics under /metrics.
func StartMetricsServer(logger *zap.Logger, address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(address, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
