package middlewares

import (
	"net/http"
	"strconv"

	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
	"github.com/velvetlabs/brandsso/internal/rate"
)

// RateLimit throttles by client IP. On limiter backend failure the request
// passes: an unavailable Redis must not take logins down with it.
func RateLimit(limiter rate.Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), scope+":"+ClientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.Component("http"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				apperrors.WriteError(w, r, apperrors.RateLimited("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
