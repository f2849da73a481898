package oauth

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/clientauth"
	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	dto "github.com/dropDatabas3/littlejohn/internal/http/dto/oauth"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/scope"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// tokenService implements TokenService.
type tokenService struct {
	store             store.Store
	cache             cache.Client
	issuer            *jwtx.Issuer
	scopes            *scope.Registry
	publicAuth        *clientauth.Registry
	allowSessionGrant bool
	accessTTL         time.Duration
	refreshTTL        time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(d Deps) TokenService {
	return &tokenService{
		store:             d.Store,
		cache:             d.Cache,
		issuer:            d.Issuer,
		scopes:            d.Scopes,
		publicAuth:        d.PublicAuth,
		allowSessionGrant: d.AllowSessionGrant,
		accessTTL:         d.AccessTTL,
		refreshTTL:        d.RefreshTTL,
	}
}

// Exchange dispatches the request to the handler for its grant_type.
func (s *tokenService) Exchange(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error) {
	switch req.GrantType {
	case "password":
		return s.handlePassword(ctx, req)
	case "refresh_token":
		return s.handleRefresh(ctx, req)
	case "authorization_code":
		return s.handleAuthorizationCode(ctx, req)
	case "edx_session":
		return s.handleSession(ctx, req)
	default:
		return nil, ErrTokenUnsupportedGrantType
	}
}

// handlePassword handles grant_type=password. Public clients authenticate by
// client_id alone (the registered strategy); confidential clients by secret.
// The user credentials are always validated against the user store.
func (s *tokenService) handlePassword(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token.password"))

	if req.Username == "" || req.Password == "" {
		return nil, ErrTokenInvalidRequest
	}

	client, err := s.resolveClient(ctx, "password", req)
	if err != nil {
		log.Warn("client resolution failed", logger.ClientID(req.ClientID))
		return nil, ErrTokenInvalidClient
	}

	set, err := s.scopes.Parse(req.Scope)
	if err != nil {
		return nil, ErrTokenInvalidScope
	}

	user, err := s.store.Users().GetByUsername(ctx, req.Username)
	if err != nil || user.DisabledAt != nil {
		log.Warn("unknown or disabled user")
		return nil, ErrTokenInvalidGrant
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		log.Warn("password mismatch", logger.UserID(user.ID))
		return nil, ErrTokenInvalidGrant
	}

	log.Info("password grant accepted", logger.UserID(user.ID), logger.ClientID(client.ClientID))
	return s.issueTokens(ctx, client, user, set, issueOpts{withRefresh: true})
}

// handleSession handles grant_type=edx_session: a token for the user of an
// already-established session, no credentials in the grant body.
func (s *tokenService) handleSession(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token.session"))

	// Disabled: answer as if the grant did not match anything, so callers
	// cannot probe which grant types exist behind the flag.
	if !s.allowSessionGrant {
		return nil, ErrTokenInvalidGrant
	}

	if !req.Auth.SessionValid || req.Auth.User == nil {
		log.Warn("session grant without authenticated session")
		return nil, ErrTokenInvalidGrant
	}

	client, err := s.resolveClient(ctx, "edx_session", req)
	if err != nil {
		log.Warn("client resolution failed", logger.ClientID(req.ClientID))
		return nil, ErrTokenInvalidClient
	}

	set, err := s.scopes.Parse(req.Scope)
	if err != nil {
		return nil, ErrTokenInvalidScope
	}

	log.Info("session grant accepted", logger.UserID(req.Auth.User.ID), logger.ClientID(client.ClientID))
	return s.issueTokens(ctx, client, req.Auth.User, set, issueOpts{})
}

// handleRefresh handles grant_type=refresh_token (rotation).
func (s *tokenService) handleRefresh(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token.refresh"))

	if req.RefreshToken == "" {
		return nil, ErrTokenInvalidRequest
	}

	client, err := clientauth.ResolveConfidential(ctx, s.store.Clients(), req.ClientID, req.ClientSecret)
	if err != nil {
		log.Warn("client resolution failed", logger.ClientID(req.ClientID))
		return nil, ErrTokenInvalidClient
	}

	// Check-and-invalidate in one repository call: of two concurrent
	// redemptions exactly one gets the token back.
	rt, err := s.store.Tokens().ConsumeRefreshByHash(ctx, tokens.SHA256Base64URL(req.RefreshToken))
	if err != nil {
		log.Warn("refresh token not found, revoked or expired")
		return nil, ErrTokenInvalidGrant
	}
	if rt.ClientID != client.ClientID {
		log.Warn("refresh token client mismatch", logger.ClientID(client.ClientID))
		return nil, ErrTokenInvalidGrant
	}

	user, err := s.store.Users().GetByID(ctx, rt.UserID)
	if err != nil || user.DisabledAt != nil {
		return nil, ErrTokenInvalidGrant
	}

	set, err := s.scopes.FromInt(rt.Scope)
	if err != nil {
		return nil, ErrTokenServerError
	}

	log.Info("refresh token rotated", logger.UserID(user.ID), logger.ClientID(client.ClientID))
	return s.issueTokens(ctx, client, user, set, issueOpts{withRefresh: true})
}

// handleAuthorizationCode handles grant_type=authorization_code.
func (s *tokenService) handleAuthorizationCode(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token.authcode"))

	if req.Code == "" || req.RedirectURI == "" {
		return nil, ErrTokenInvalidRequest
	}

	client, err := clientauth.ResolveConfidential(ctx, s.store.Clients(), req.ClientID, req.ClientSecret)
	if err != nil {
		log.Warn("client resolution failed", logger.ClientID(req.ClientID))
		return nil, ErrTokenInvalidClient
	}

	// One-shot consume: the cache removes the code atomically, so a code can
	// be redeemed at most once even under concurrent requests.
	data, err := s.cache.ConsumeOnce(ctx, cacheKeyPrefixCode+tokens.SHA256Base64URL(req.Code))
	if err != nil {
		log.Warn("authorization code not found")
		return nil, ErrTokenInvalidGrant
	}

	var ac AuthCodePayload
	if err := json.Unmarshal(data, &ac); err != nil {
		log.Warn("authorization code corrupted", logger.Err(err))
		return nil, ErrTokenInvalidGrant
	}
	if time.Now().After(ac.ExpiresAt) {
		log.Warn("authorization code expired")
		return nil, ErrTokenInvalidGrant
	}
	if ac.ClientID != client.ClientID || ac.RedirectURI != req.RedirectURI {
		log.Warn("client/redirect_uri mismatch")
		return nil, ErrTokenInvalidGrant
	}

	user, err := s.store.Users().GetByID(ctx, ac.UserID)
	if err != nil || user.DisabledAt != nil {
		return nil, ErrTokenInvalidGrant
	}

	set, err := s.scopes.FromInt(ac.Scope)
	if err != nil {
		return nil, ErrTokenServerError
	}

	log.Info("authorization code exchanged", logger.UserID(user.ID), logger.ClientID(client.ClientID))
	return s.issueTokens(ctx, client, user, set, issueOpts{withRefresh: true, nonce: ac.Nonce})
}

// resolveClient resuelve el client para un grant: primero la strategy public
// registrada para el grant_type, después autenticación confidential.
func (s *tokenService) resolveClient(ctx context.Context, grantType string, req TokenRequest) (*repository.Client, error) {
	if strat, ok := s.publicAuth.For(grantType); ok {
		if c, err := strat.ResolveClient(ctx, req.Params); err == nil {
			return c, nil
		}
	}
	return clientauth.ResolveConfidential(ctx, s.store.Clients(), req.ClientID, req.ClientSecret)
}

type issueOpts struct {
	withRefresh bool
	nonce       string
}

// issueTokens crea el access token (y opcionalmente refresh), y el ID token
// si el scope incluye openid.
func (s *tokenService) issueTokens(ctx context.Context, client *repository.Client, user *repository.User, set scope.Set, opts issueOpts) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token.issue"))

	raw, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, ErrTokenServerError
	}
	at, err := s.store.Tokens().CreateAccess(ctx, repository.CreateAccessTokenInput{
		Token:      raw,
		UserID:     user.ID,
		ClientID:   client.ClientID,
		Scope:      set.Int(),
		TTLSeconds: int(s.accessTTL.Seconds()),
	})
	if err != nil {
		log.Error("failed to store access token", logger.Err(err))
		return nil, ErrTokenServerError
	}

	resp := &dto.TokenResponse{
		AccessToken: at.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(at.ExpiresAt).Seconds()),
		Scope:       s.scopes.Join(set),
	}

	if opts.withRefresh {
		rawRT, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			return nil, ErrTokenServerError
		}
		_, err = s.store.Tokens().CreateRefresh(ctx, repository.CreateRefreshTokenInput{
			UserID:     user.ID,
			ClientID:   client.ClientID,
			TokenHash:  tokens.SHA256Base64URL(rawRT),
			Scope:      set.Int(),
			TTLSeconds: int(s.refreshTTL.Seconds()),
		})
		if err != nil {
			log.Error("failed to store refresh token", logger.Err(err))
			return nil, ErrTokenServerError
		}
		resp.RefreshToken = rawRT
	}

	if set.Has(s.scopes, scope.OpenID) {
		idt, err := s.issuer.IssueIDToken(s.scopes, set, user, client, opts.nonce)
		if err != nil {
			log.Error("failed to issue id_token", logger.Err(err))
			return nil, ErrTokenServerError
		}
		resp.IDToken = idt
		metrics.ObserveIDTokenIssued()
	}

	return resp, nil
}
