package oauth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	dto "github.com/dropDatabas3/littlejohn/internal/http/dto/oauth"
	svc "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// AuthorizeController handles the OAuth2/OIDC authorization endpoint.
type AuthorizeController struct {
	service  svc.AuthorizeService
	sessions *session.Manager
	store    store.Store
}

// NewAuthorizeController creates the controller.
func NewAuthorizeController(s svc.AuthorizeService, sessions *session.Manager, st store.Store) *AuthorizeController {
	return &AuthorizeController{service: s, sessions: sessions, store: st}
}

// Authorize handles GET|POST /oauth2/authorize
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.authorize"))

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeOAuthError(w, http.StatusMethodNotAllowed, "invalid_request")
		return
	}

	params, err := requestParams(r)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req := dto.AuthorizeRequest{
		ResponseType: strings.TrimSpace(params.Get("response_type")),
		ClientID:     strings.TrimSpace(params.Get("client_id")),
		RedirectURI:  strings.TrimSpace(params.Get("redirect_uri")),
		Scope:        strings.TrimSpace(params.Get("scope")),
		State:        params.Get("state"),
		Nonce:        params.Get("nonce"),
	}

	result, err := c.service.Authorize(ctx, resolveAuth(ctx, c.sessions, c.store, r), req)
	if err != nil {
		log.Error("authorize failed", logger.Err(err))
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
		return
	}

	metrics.ObserveAuthorize(string(result.Type))
	renderAuthResult(w, r, result)
}

// requestParams toma los parámetros del query (GET) o del form (POST).
func requestParams(r *http.Request) (url.Values, error) {
	if r.Method == http.MethodGet {
		return r.URL.Query(), nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBodySize)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// renderAuthResult traduce el resultado del engine a HTTP.
func renderAuthResult(w http.ResponseWriter, r *http.Request, result dto.AuthResult) {
	switch result.Type {
	case dto.AuthResultCode, dto.AuthResultFragment:
		http.Redirect(w, r, result.Location, http.StatusFound)

	case dto.AuthResultNeedLogin:
		// El front resuelve el login y reintenta con next.
		http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)

	case dto.AuthResultNeedConsent:
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"consent_required": true,
			"consent_token":    result.ConsentToken,
		})

	case dto.AuthResultError:
		if result.Location != "" {
			// El usuario ya interactuó: el error viaja al client.
			http.Redirect(w, r, result.Location, http.StatusFound)
			return
		}
		writeAuthorizeError(w, result.ErrorCode, result.ErrorDescription)

	default:
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
	}
}

func writeAuthorizeError(w http.ResponseWriter, code, description string) {
	status := http.StatusBadRequest
	if code == "server_error" {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
