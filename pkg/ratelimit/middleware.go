package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/opencourse/tarpaulin/pkg/httpx"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

// Middleware gates every request through the token bucket before any other
// processing. Rejected clients get a 429 with a Retry-After hint so "too
// fast" is distinguishable from "broken".
//
// If the limiter's backing store is unavailable the request is admitted
// anyway: an infrastructure outage must never take down all traffic.
func Middleware(l Limiter, keyExtractor httpx.KeyExtractor) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract client key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.Admit(ctx, key)
			if err != nil {
				// Fail-open: log the degradation and let the request through.
				log.Warn("rate limit store unavailable, failing open", "key", key, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				retryAfter := max(int(l.RetryAfter().Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn("rate limit exceeded", "key", key, "endpoint", r.URL.Path)

				httpx.WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
