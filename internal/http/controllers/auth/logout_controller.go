package auth

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// LogoutController destruye la sesión y revoca los refresh tokens del usuario.
type LogoutController struct {
	sessions *session.Manager
	store    store.Store
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(sessions *session.Manager, st store.Store) *LogoutController {
	return &LogoutController{sessions: sessions, store: st}
}

// Logout maneja POST /logout
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	ctx := r.Context()

	// Logout cierra la sesión completa: además de la cookie caen los refresh
	// tokens vivos del usuario, para que nada emitido contra esta sesión siga
	// renovándose.
	if p, ok := c.sessions.FromRequest(ctx, r); ok {
		n, err := c.store.Tokens().RevokeAllByUser(ctx, p.UserID, "")
		if err != nil {
			logger.From(ctx).Warn("failed to revoke refresh tokens on logout",
				logger.UserID(p.UserID), logger.Err(err))
		} else if n > 0 {
			logger.From(ctx).Info("refresh tokens revoked on logout",
				logger.UserID(p.UserID), logger.Int("revoked", n))
		}
	}

	c.sessions.Destroy(ctx, w, r)

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
