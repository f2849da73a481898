// Package http arma el router y el servidor HTTP.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/littlejohn/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/littlejohn/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/littlejohn/internal/http/controllers/oauth"
	mw "github.com/dropDatabas3/littlejohn/internal/http/middlewares"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/rate"
)

// RouterDeps contiene las dependencias del router.
type RouterDeps struct {
	OAuth  *oauthctrl.Controllers
	Auth   *authctrl.Controllers
	Health *healthctrl.Controller

	// MetricsHandler es el handler de /metrics (nil lo deshabilita).
	MetricsHandler stdhttp.Handler

	// JWKSHandler expone la clave pública del servidor (nil lo deshabilita).
	JWKSHandler stdhttp.Handler

	// RateLimiter limita por IP los endpoints que reciben credenciales
	// (opcional).
	RateLimiter rate.Limiter
}

// NewRouter registra todas las rutas del servidor.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()

	// Middleware base para todo el router.
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	r.Use(mw.WithLogging())
	r.Use(metrics.WithHTTP)

	// Health
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	if deps.MetricsHandler != nil {
		r.Method(stdhttp.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.JWKSHandler != nil {
		r.Method(stdhttp.MethodGet, "/.well-known/jwks.json", deps.JWKSHandler)
	}

	// Session login para /oauth2/authorize y el grant de sesión.
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		g.Use(mw.WithRateLimit(deps.RateLimiter))
		g.Post("/login", deps.Auth.Login.Login)
		g.Post("/logout", deps.Auth.Logout.Logout)
	})

	// OAuth2/OIDC
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		g.Use(mw.WithRateLimit(deps.RateLimiter))
		g.Post("/oauth2/access_token", deps.OAuth.Token.Token)
		g.Get("/oauth2/authorize", deps.OAuth.Authorize.Authorize)
		g.Post("/oauth2/authorize", deps.OAuth.Authorize.Authorize)
		g.Post("/oauth2/consent", deps.OAuth.Consent.Accept)
	})

	return r
}
