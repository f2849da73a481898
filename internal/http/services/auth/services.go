// Package auth contiene los services de autenticación de usuarios
// (la sesión cookie que alimenta /oauth2/authorize y el grant edx_session).
package auth

import (
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Store store.Store
}

// Services agrupa los services del dominio auth.
type Services struct {
	Login LoginService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	return Services{
		Login: NewLoginService(d.Store),
	}
}
