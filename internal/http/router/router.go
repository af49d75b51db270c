// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ssocontroller "github.com/velvetlabs/brandsso/internal/http/controllers/sso"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/http/middlewares"
	"github.com/velvetlabs/brandsso/internal/rate"
)

// Deps carries everything the router mounts.
type Deps struct {
	SSO            *ssocontroller.Controller
	AllowedOrigins []string
	AuthLimiter    rate.Limiter // nil disables throttling
	Health         http.HandlerFunc
}

// New builds the chi router with the full middleware chain.
func New(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.RequestContext)
	r.Use(middlewares.Recover)
	r.Use(middlewares.SecurityHeaders)
	r.Use(middlewares.CORS(d.AllowedOrigins))

	r.Get("/healthz", d.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/sso", func(r chi.Router) {
		credentialed := func(h http.HandlerFunc) http.Handler {
			if d.AuthLimiter == nil {
				return h
			}
			return middlewares.RateLimit(d.AuthLimiter, "auth")(h)
		}
		r.Method(http.MethodPost, "/login", credentialed(d.SSO.Login))
		r.Method(http.MethodPost, "/signup", credentialed(d.SSO.Signup))
		r.Post("/initiate", d.SSO.Initiate)
		r.Get("/authorize", d.SSO.Authorize)
		r.Method(http.MethodPost, "/token", credentialed(d.SSO.Token))
		r.Post("/logout", d.SSO.Logout)
		r.Get("/check", d.SSO.Check)
		r.Get("/.well-known/configuration", d.SSO.Discovery)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteError(w, r, apperrors.New(apperrors.CodeInvalidRequest, http.StatusNotFound, "unknown endpoint"))
	})
	return r
}
