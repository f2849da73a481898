// Package auth contiene los controllers de autenticación de usuarios.
package auth

import (
	svc "github.com/dropDatabas3/littlejohn/internal/http/services/auth"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login  *LoginController
	Logout *LogoutController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, sessions *session.Manager, st store.Store) *Controllers {
	return &Controllers{
		Login:  NewLoginController(s.Login, sessions),
		Logout: NewLogoutController(sessions, st),
	}
}
