package oauth

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	dto "github.com/dropDatabas3/littlejohn/internal/http/dto/oauth"
)

// TokenService handles OAuth2 token endpoint logic.
//
// Exchange dispatches on grant_type: password, refresh_token,
// authorization_code and edx_session. Unknown values fail with
// ErrTokenUnsupportedGrantType.
type TokenService interface {
	Exchange(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error)
}

// AuthContext es el contexto de autenticación del request: el usuario de la
// sesión (si la hay). Se pasa explícito al engine en vez de leerse de estado
// ambiente, para que el comportamiento sea determinístico y testeable.
type AuthContext struct {
	User         *repository.User
	SessionValid bool
}

// TokenRequest contains the parsed token endpoint form plus the caller's
// authentication context.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Scope        string
	Username     string
	Password     string
	RefreshToken string
	Code         string
	RedirectURI  string

	// Params is the raw form, consumed by public-client strategies.
	Params url.Values

	// Auth carries the session user, required by the edx_session grant.
	Auth AuthContext
}

// Token endpoint errors (OAuth2 standard).
var (
	ErrTokenInvalidRequest       = errors.New("invalid_request")
	ErrTokenInvalidClient        = errors.New("invalid_client")
	ErrTokenInvalidGrant         = errors.New("invalid_grant")
	ErrTokenUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrTokenInvalidScope         = errors.New("invalid_scope")
	ErrTokenServerError          = errors.New("server_error")
)

// AuthCodePayload is the cached authorization code data.
type AuthCodePayload struct {
	UserID      string    `json:"user_id"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Scope       uint64    `json:"scope"`
	Nonce       string    `json:"nonce,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}
