package oauth

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/littlejohn/internal/http/dto/oauth"
	svc "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// ConsentController handles the consent accept endpoint (SPA).
type ConsentController struct {
	service  svc.AuthorizeService
	sessions *session.Manager
	store    store.Store
}

// NewConsentController creates the controller.
func NewConsentController(s svc.AuthorizeService, sessions *session.Manager, st store.Store) *ConsentController {
	return &ConsentController{service: s, sessions: sessions, store: st}
}

// Accept handles POST /oauth2/consent
func (c *ConsentController) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.consent"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeOAuthError(w, http.StatusMethodNotAllowed, "invalid_request")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	defer r.Body.Close()

	var req dto.ConsentAcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	// La sesión viene de la cookie, igual que en /oauth2/authorize.
	auth := resolveAuth(ctx, c.sessions, c.store, r)

	result, err := c.service.AcceptConsent(ctx, auth, req)
	if err != nil {
		log.Error("consent accept failed", logger.Err(err))
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
		return
	}

	metrics.ObserveAuthorize(string(result.Type))

	// El redirect final vuelve como JSON: el SPA navega por su cuenta.
	switch result.Type {
	case dto.AuthResultCode, dto.AuthResultFragment:
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"redirect": result.Location})

	case dto.AuthResultError:
		if result.Location != "" {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"redirect": result.Location})
			return
		}
		writeAuthorizeError(w, result.ErrorCode, result.ErrorDescription)

	default:
		writeOAuthError(w, http.StatusInternalServerError, "server_error")
	}
}
