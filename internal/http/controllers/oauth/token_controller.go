// Package oauth - TokenController handles POST /oauth2/access_token
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/littlejohn/internal/http/dto/oauth"
	svc "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

const maxFormBodySize = 64 << 10 // 64KB for OAuth forms

// TokenController handles the OAuth2 token endpoint.
type TokenController struct {
	service  svc.TokenService
	sessions *session.Manager
	store    store.Store
}

// NewTokenController creates the controller.
func NewTokenController(s svc.TokenService, sessions *session.Manager, st store.Store) *TokenController {
	return &TokenController{service: s, sessions: sessions, store: st}
}

// Token handles POST /oauth2/access_token
// Implements: Password, Refresh Token, Authorization Code and Session grants.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeOAuthError(w, http.StatusMethodNotAllowed, "invalid_request")
		return
	}

	// Limit body size
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)

	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	grantType := strings.TrimSpace(r.PostForm.Get("grant_type"))
	log = log.With(logger.GrantType(grantType))

	req := svc.TokenRequest{
		GrantType:    grantType,
		ClientID:     strings.TrimSpace(r.PostForm.Get("client_id")),
		ClientSecret: r.PostForm.Get("client_secret"),
		Scope:        strings.TrimSpace(r.PostForm.Get("scope")),
		Username:     strings.TrimSpace(r.PostForm.Get("username")),
		Password:     r.PostForm.Get("password"),
		RefreshToken: strings.TrimSpace(r.PostForm.Get("refresh_token")),
		Code:         strings.TrimSpace(r.PostForm.Get("code")),
		RedirectURI:  strings.TrimSpace(r.PostForm.Get("redirect_uri")),
		Params:       r.PostForm,
		Auth:         resolveAuth(ctx, c.sessions, c.store, r),
	}

	resp, err := c.service.Exchange(ctx, req)
	if err != nil {
		metrics.ObserveTokenGrant(grantType, errorCode(err))
		writeTokenError(w, err, ctx)
		return
	}

	metrics.ObserveTokenGrant(grantType, "ok")
	writeTokenResponse(w, resp)
}

func writeTokenError(w http.ResponseWriter, err error, ctx context.Context) {
	log := logger.From(ctx)
	switch {
	case errors.Is(err, svc.ErrTokenInvalidRequest),
		errors.Is(err, svc.ErrTokenInvalidClient),
		errors.Is(err, svc.ErrTokenInvalidGrant),
		errors.Is(err, svc.ErrTokenUnsupportedGrantType),
		errors.Is(err, svc.ErrTokenInvalidScope):
		writeOAuthError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("token endpoint error", logger.Err(err))
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
	}
}

// errorCode mapea el error a su código OAuth para la label de métricas.
func errorCode(err error) string {
	switch {
	case errors.Is(err, svc.ErrTokenInvalidRequest),
		errors.Is(err, svc.ErrTokenInvalidClient),
		errors.Is(err, svc.ErrTokenInvalidGrant),
		errors.Is(err, svc.ErrTokenUnsupportedGrantType),
		errors.Is(err, svc.ErrTokenInvalidScope):
		return err.Error()
	default:
		return "server_error"
	}
}

func writeOAuthError(w http.ResponseWriter, status int, errorCode string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.TokenError{Error: errorCode})
}

func writeTokenResponse(w http.ResponseWriter, resp *dto.TokenResponse) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
