// Package session maneja sesiones de usuario respaldadas por cookie + cache.
//
// La cookie guarda un session ID opaco; el cache guarda el payload bajo la
// key "sid:" + sha256(sid), de modo que un dump del cache no expone session
// IDs utilizables.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	tokens "github.com/dropDatabas3/littlejohn/internal/security/token"
)

const cacheKeyPrefix = "sid:"

// Payload es el estado de una sesión autenticada.
type Payload struct {
	UserID  string    `json:"user_id"`
	Expires time.Time `json:"expires"`
}

// Manager crea, resuelve y destruye sesiones.
type Manager struct {
	Cache      cache.Client
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Establish crea una sesión para el usuario y setea la cookie.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, userID string) error {
	sid, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}
	p := Payload{
		UserID:  userID,
		Expires: time.Now().Add(m.TTL),
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := m.Cache.Set(ctx, cacheKeyPrefix+tokens.SHA256Base64URL(sid), b, m.TTL); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.TTL.Seconds()),
	})
	return nil
}

// FromRequest resuelve la sesión de la cookie del request.
// Retorna (payload, true) solo si la sesión existe y no expiró.
func (m *Manager) FromRequest(ctx context.Context, r *http.Request) (*Payload, bool) {
	ck, err := r.Cookie(m.CookieName)
	if err != nil || ck == nil || strings.TrimSpace(ck.Value) == "" {
		return nil, false
	}
	b, err := m.Cache.Get(ctx, cacheKeyPrefix+tokens.SHA256Base64URL(ck.Value))
	if err != nil {
		return nil, false
	}
	var p Payload
	if json.Unmarshal(b, &p) != nil {
		return nil, false
	}
	if time.Now().After(p.Expires) {
		return nil, false
	}
	return &p, true
}

// Destroy elimina la sesión y expira la cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(m.CookieName); err == nil && ck != nil && ck.Value != "" {
		_ = m.Cache.Delete(ctx, cacheKeyPrefix+tokens.SHA256Base64URL(ck.Value))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
