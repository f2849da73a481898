package oauth

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	dto "github.com/dropDatabas3/littlejohn/internal/http/dto/oauth"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/scope"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Cache key prefixes
const (
	cacheKeyPrefixCode    = "code:"
	cacheKeyPrefixConsent = "consent:"
)

// TTL constants
const (
	authCodeTTL = 10 * time.Minute
	consentTTL  = 5 * time.Minute
)

// AuthorizeService es el decision engine del authorization endpoint: valida
// response_type + scope, aplica las reglas OIDC y produce el redirect
// correcto (code en query, tokens en fragment) o el error correcto.
type AuthorizeService interface {
	Authorize(ctx context.Context, auth AuthContext, req dto.AuthorizeRequest) (dto.AuthResult, error)

	// AcceptConsent completa una autorización diferida por consent de un
	// client no trusted.
	AcceptConsent(ctx context.Context, auth AuthContext, req dto.ConsentAcceptRequest) (dto.AuthResult, error)
}

type authorizeService struct {
	store     store.Store
	cache     cache.Client
	issuer    *jwtx.Issuer
	scopes    *scope.Registry
	accessTTL time.Duration
}

// NewAuthorizeService creates a new AuthorizeService.
func NewAuthorizeService(d Deps) AuthorizeService {
	return &authorizeService{
		store:     d.Store,
		cache:     d.Cache,
		issuer:    d.Issuer,
		scopes:    d.Scopes,
		accessTTL: d.AccessTTL,
	}
}

// artifacts son los artefactos pedidos vía response_type.
type artifacts struct {
	code    bool
	token   bool
	idToken bool
}

// parseResponseType parsea response_type como un conjunto de artefactos.
// Combinaciones reconocidas: "code", "token", "id_token", "id_token token"
// (en cualquier orden). Todo lo demás es inválido.
func parseResponseType(s string) (artifacts, bool) {
	var a artifacts
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return a, false
	}
	for _, f := range fields {
		switch f {
		case "code":
			if a.code {
				return a, false
			}
			a.code = true
		case "token":
			if a.token {
				return a, false
			}
			a.token = true
		case "id_token":
			if a.idToken {
				return a, false
			}
			a.idToken = true
		default:
			return a, false
		}
	}
	// "code" no se combina con artefactos implícitos.
	if a.code && (a.token || a.idToken) {
		return a, false
	}
	// "token" solo o junto a "id_token"; "id_token" solo.
	return a, true
}

// consentChallenge es el estado de una autorización pendiente de consent.
type consentChallenge struct {
	UserID       string    `json:"user_id"`
	ClientID     string    `json:"client_id"`
	RedirectURI  string    `json:"redirect_uri"`
	ResponseType string    `json:"response_type"`
	Scope        uint64    `json:"scope"`
	State        string    `json:"state,omitempty"`
	Nonce        string    `json:"nonce,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Authorize corre la máquina de estados sobre un único request.
func (s *authorizeService) Authorize(ctx context.Context, auth AuthContext, req dto.AuthorizeRequest) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.authorize"),
		logger.ClientID(req.ClientID), logger.ResponseType(req.ResponseType))

	// 1. response_type → conjunto de artefactos.
	art, ok := parseResponseType(req.ResponseType)
	if !ok {
		return errResult("invalid_request", "unsupported response_type"), nil
	}

	// 2. Client y redirect_uri. Fallas acá no pueden viajar por redirect
	// porque todavía no hay un destino confiable: responden 400 directo.
	client, err := s.store.Clients().Get(ctx, req.ClientID)
	if err != nil {
		log.Warn("unknown client")
		return errResult("invalid_client", "unknown client"), nil
	}
	redirectURI, ok := resolveRedirect(client, req.RedirectURI)
	if !ok {
		log.Warn("redirect_uri not registered")
		return errResult("invalid_request", "redirect_uri not registered for client"), nil
	}

	// 3. Scope.
	set, err := s.scopes.Parse(req.Scope)
	if err != nil {
		return errResult("invalid_scope", "unknown scope"), nil
	}
	openid := set.Has(s.scopes, scope.OpenID)

	// 4. Reglas OIDC sobre la combinación scope/response_type.
	if art.idToken && !openid {
		return errResult("invalid_request", "id_token response_type requires openid scope"), nil
	}
	// "token" a secas con scope openid queda sin definir en OIDC; lo
	// rechazamos en vez de adivinar qué quiso el caller.
	if openid && art.token && !art.idToken && !art.code {
		return errResult("invalid_request", "response_type token is not supported with openid scope"), nil
	}

	// 5. Usuario autenticado.
	if !auth.SessionValid || auth.User == nil {
		return dto.AuthResult{Type: dto.AuthResultNeedLogin}, nil
	}

	// 6. Consent: los clients trusted lo saltean.
	if !client.Trusted {
		token, err := s.createConsentChallenge(ctx, auth.User, client, req, redirectURI, set)
		if err != nil {
			log.Error("failed to store consent challenge", logger.Err(err))
			return errResult("server_error", "could not store consent challenge"), nil
		}
		return dto.AuthResult{Type: dto.AuthResultNeedConsent, ConsentToken: token}, nil
	}

	return s.finish(ctx, client, auth.User, art, set, redirectURI, req.State, req.Nonce)
}

// AcceptConsent consume el challenge y completa (o rechaza) la autorización.
func (s *authorizeService) AcceptConsent(ctx context.Context, auth AuthContext, req dto.ConsentAcceptRequest) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.consent.accept"))

	if strings.TrimSpace(req.Token) == "" {
		return errResult("invalid_request", "consent token required"), nil
	}

	// One-shot: el challenge se consume exista o no aprobación.
	data, err := s.cache.ConsumeOnce(ctx, cacheKeyPrefixConsent+tokens.SHA256Base64URL(req.Token))
	if err != nil {
		return errResult("invalid_request", "unknown or expired consent challenge"), nil
	}

	var ch consentChallenge
	if err := json.Unmarshal(data, &ch); err != nil {
		log.Error("consent challenge corrupted", logger.Err(err))
		return errResult("invalid_request", "unknown or expired consent challenge"), nil
	}
	if time.Now().After(ch.ExpiresAt) {
		return errResult("invalid_request", "unknown or expired consent challenge"), nil
	}
	if !auth.SessionValid || auth.User == nil || auth.User.ID != ch.UserID {
		log.Warn("consent session mismatch")
		return errResult("invalid_request", "consent does not belong to this session"), nil
	}

	if !req.Approve {
		// El usuario ya interactuó y el redirect está validado: el error
		// viaja como parámetros al client.
		return dto.AuthResult{
			Type:      dto.AuthResultError,
			ErrorCode: "access_denied",
			Location: buildRedirect(ch.RedirectURI, map[string]string{
				"error": "access_denied",
				"state": ch.State,
			}),
		}, nil
	}

	client, err := s.store.Clients().Get(ctx, ch.ClientID)
	if err != nil {
		return errResult("invalid_client", "unknown client"), nil
	}
	art, ok := parseResponseType(ch.ResponseType)
	if !ok {
		return errResult("invalid_request", "unsupported response_type"), nil
	}
	set, err := s.scopes.FromInt(ch.Scope)
	if err != nil {
		return errResult("server_error", "stored scope is invalid"), nil
	}

	return s.finish(ctx, client, auth.User, art, set, ch.RedirectURI, ch.State, ch.Nonce)
}

// finish emite los artefactos pedidos y arma el redirect final.
func (s *authorizeService) finish(ctx context.Context, client *repository.Client, user *repository.User, art artifacts, set scope.Set, redirectURI, state, nonce string) (dto.AuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.authorize.finish"),
		logger.ClientID(client.ClientID), logger.UserID(user.ID))

	if art.code {
		code, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			return errResult("server_error", "could not generate code"), nil
		}
		payload, _ := json.Marshal(AuthCodePayload{
			UserID:      user.ID,
			ClientID:    client.ClientID,
			RedirectURI: redirectURI,
			Scope:       set.Int(),
			Nonce:       nonce,
			ExpiresAt:   time.Now().Add(authCodeTTL),
		})
		// El code viaja plano al client pero se guarda hasheado.
		if err := s.cache.Set(ctx, cacheKeyPrefixCode+tokens.SHA256Base64URL(code), payload, authCodeTTL); err != nil {
			log.Error("failed to store auth code", logger.Err(err))
			return errResult("server_error", "could not store code"), nil
		}
		log.Info("auth code issued")
		return dto.AuthResult{
			Type: dto.AuthResultCode,
			Location: buildRedirect(redirectURI, map[string]string{
				"code":  code,
				"state": state,
			}),
		}, nil
	}

	// Familia implícita: access token y/o id_token directo en el fragment.
	params := map[string]string{
		"scope": s.scopes.Join(set),
		"state": state,
	}

	if art.token {
		raw, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			return errResult("server_error", "could not generate token"), nil
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
			return errResult("server_error", "could not store token"), nil
		}
		params["access_token"] = at.Token
		params["token_type"] = "Bearer"
	}

	if art.idToken {
		idt, err := s.issuer.IssueIDToken(s.scopes, set, user, client, nonce)
		if err != nil {
			log.Error("failed to issue id_token", logger.Err(err))
			return errResult("server_error", "could not issue id_token"), nil
		}
		params["id_token"] = idt
		metrics.ObserveIDTokenIssued()
	}

	log.Info("implicit grant issued", logger.Scope(params["scope"]))
	return dto.AuthResult{
		Type:     dto.AuthResultFragment,
		Location: buildFragmentRedirect(redirectURI, params),
	}, nil
}

func (s *authorizeService) createConsentChallenge(ctx context.Context, user *repository.User, client *repository.Client, req dto.AuthorizeRequest, redirectURI string, set scope.Set) (string, error) {
	token, err := tokens.GenerateOpaqueToken(24)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(consentChallenge{
		UserID:       user.ID,
		ClientID:     client.ClientID,
		RedirectURI:  redirectURI,
		ResponseType: req.ResponseType,
		Scope:        set.Int(),
		State:        req.State,
		Nonce:        req.Nonce,
		ExpiresAt:    time.Now().Add(consentTTL),
	})
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, cacheKeyPrefixConsent+tokens.SHA256Base64URL(token), payload, consentTTL); err != nil {
		return "", err
	}
	return token, nil
}

// resolveRedirect valida el redirect_uri contra los registrados del client.
// Si el request no trae redirect_uri y el client tiene exactamente uno
// registrado, se usa ese.
func resolveRedirect(client *repository.Client, uri string) (string, bool) {
	if uri == "" {
		if len(client.RedirectURIs) == 1 {
			return client.RedirectURIs[0], true
		}
		return "", false
	}
	for _, allowed := range client.RedirectURIs {
		if allowed == uri {
			return uri, true
		}
	}
	return "", false
}

func errResult(code, desc string) dto.AuthResult {
	return dto.AuthResult{
		Type:             dto.AuthResultError,
		ErrorCode:        code,
		ErrorDescription: desc,
	}
}
