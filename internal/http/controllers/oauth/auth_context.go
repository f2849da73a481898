package oauth

import (
	"context"
	"net/http"

	svc "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// resolveAuth arma el AuthContext del request: resuelve la sesión cookie y
// carga el usuario. Sin sesión (o usuario deshabilitado) devuelve un
// AuthContext vacío, nunca un error.
func resolveAuth(ctx context.Context, sessions *session.Manager, st store.Store, r *http.Request) svc.AuthContext {
	p, ok := sessions.FromRequest(ctx, r)
	if !ok {
		return svc.AuthContext{}
	}
	user, err := st.Users().GetByID(ctx, p.UserID)
	if err != nil || user.DisabledAt != nil {
		return svc.AuthContext{}
	}
	return svc.AuthContext{User: user, SessionValid: true}
}
