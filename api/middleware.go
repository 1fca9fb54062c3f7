package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and counts it in metrics. It
// must sit outside middleware.Recoverer to see recovered panics as 500s.
func RequestLogger(logger *zap.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				}
				switch {
				case status >= 500:
					logger.Error("request", fields...)
				case status >= 400:
					logger.Warn("request", fields...)
				default:
					logger.Info("request", fields...)
				}
				metrics.ObserveRequest(r.Method, status)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
