// Package oauth contiene los services del dominio OAuth2/OIDC: el token
// endpoint (grant handlers) y el authorization endpoint (decision engine).
package oauth

import (
	"time"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/clientauth"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/scope"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Deps contiene las dependencias para crear los services OAuth.
type Deps struct {
	Store      store.Store
	Cache      cache.Client
	Issuer     *jwtx.Issuer
	Scopes     *scope.Registry
	PublicAuth *clientauth.Registry

	// AllowSessionGrant habilita el grant edx_session.
	AllowSessionGrant bool

	AccessTTL  time.Duration // TTL de access tokens (default 30m)
	RefreshTTL time.Duration // TTL de refresh tokens (default 30 días)
}

// Services agrupa los services del dominio OAuth.
type Services struct {
	Token     TokenService
	Authorize AuthorizeService
}

// NewServices crea el agregador de services OAuth.
func NewServices(d Deps) Services {
	if d.Scopes == nil {
		d.Scopes = scope.Default()
	}
	if d.PublicAuth == nil {
		d.PublicAuth = clientauth.DefaultRegistry(d.Store.Clients())
	}
	if d.AccessTTL <= 0 {
		d.AccessTTL = 30 * time.Minute
	}
	if d.RefreshTTL <= 0 {
		d.RefreshTTL = 30 * 24 * time.Hour
	}
	return Services{
		Token:     NewTokenService(d),
		Authorize: NewAuthorizeService(d),
	}
}
