package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the rate limit key from a request. An empty key skips
// limiting for that request.
type KeyFunc func(r *http.Request) string

// RejectFunc writes the response for a rejected request.
type RejectFunc func(w http.ResponseWriter, r *http.Request)

// retryAfterer is implemented by limiters that can predict the next token.
type retryAfterer interface {
	RetryAfter(key string) time.Duration
}

// Middleware enforces limiter per key. Rejected requests get a Retry-After
// header and are passed to reject. Limiter errors fail open.
func Middleware(limiter Limiter, prefix string, keyFunc KeyFunc, reject RejectFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			key = prefix + ":" + key

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("ratelimit: limiter error, allowing request", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				retry := 1
				if ra, ok := limiter.(retryAfterer); ok {
					retry = max(1, int(ra.RetryAfter(key).Round(time.Second)/time.Second))
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPKeyFunc keys on the host part of RemoteAddr. X-Forwarded-For is ignored
// because any client can set it.
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
