package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"signalnet/internal/auth"

	"go.uber.org/zap"
)

// Counter counts hits per subject within a fixed one-minute window.
type Counter interface {
	IncrementRateLimit(ctx context.Context, subject string) (int64, error)
}

// RateLimit caps requests per viewer, or per client IP before authentication.
// Counter failures let the request through.
func RateLimit(counter Counter, perMinute int, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := "viewer:" + auth.ViewerID(r.Context())
			if subject == "viewer:" {
				subject = "ip:" + clientIP(r)
			}

			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			count, err := counter.IncrementRateLimit(ctx, subject)
			cancel()

			if err != nil {
				logger.Error("failed to check rate limit",
					zap.String("subject", subject),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))

			if count > int64(perMinute) {
				logger.Warn("rate limit exceeded",
					zap.String("subject", subject),
					zap.Int64("count", count),
				)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
