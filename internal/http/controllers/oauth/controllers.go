// Package oauth contiene los controllers de los endpoints OAuth2/OIDC.
package oauth

import (
	svc "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Controllers agrupa todos los controllers del dominio oauth.
type Controllers struct {
	Token     *TokenController
	Authorize *AuthorizeController
	Consent   *ConsentController
}

// NewControllers crea el agregador de controllers oauth.
func NewControllers(s svc.Services, sessions *session.Manager, st store.Store) *Controllers {
	return &Controllers{
		Token:     NewTokenController(s.Token, sessions, st),
		Authorize: NewAuthorizeController(s.Authorize, sessions, st),
		Consent:   NewConsentController(s.Authorize, sessions, st),
	}
}
