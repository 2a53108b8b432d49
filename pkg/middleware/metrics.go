package middleware

import (
	"net/http"
	"time"

	"medibuddy/pkg/metrics"
)

func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			collector.InFlightGauge.Inc()
			defer collector.InFlightGauge.Dec()

			wrapped := wrapWriter(w)
			next.ServeHTTP(wrapped, r)

			collector.ObserveRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		})
	}
}
