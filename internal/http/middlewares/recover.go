// Package middlewares holds the HTTP middleware chain: panic recovery,
// request-scoped logging, CORS, security headers and rate limiting.
package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
)

// Recover converts panics into a JSON 500 and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic recovered",
					logger.Component("http"),
					logger.Path(r.URL.Path),
					logger.Any("panic", rec),
					logger.String("stack", string(debug.Stack())))
				apperrors.WriteError(w, r, apperrors.Internal(fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
