package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	svc "github.com/dropDatabas3/littlejohn/internal/http/services/auth"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/session"
)

const (
	maxLoginBodySize = 64 * 1024 // 64KB
	contentTypeJSON  = "application/json; charset=utf-8"
)

// LoginController maneja el endpoint de login que establece la sesión
// cookie usada por /oauth2/authorize y el grant de sesión.
type LoginController struct {
	service  svc.LoginService
	sessions *session.Manager
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService, sessions *session.Manager) *LoginController {
	return &LoginController{service: service, sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login maneja POST /login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	defer r.Body.Close()

	// Parse request (JSON o form)
	var req loginRequest
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
	case strings.Contains(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	default:
		writeError(w, http.StatusBadRequest, "unsupported_content_type")
		return
	}

	user, err := c.service.LoginPassword(ctx, req.Username, req.Password)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	if err := c.sessions.Establish(ctx, w, user.ID); err != nil {
		log.Error("failed to establish session", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "missing_fields")
	case errors.Is(err, svc.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, svc.ErrUserDisabled):
		writeError(w, http.StatusLocked, "user_disabled")
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
