package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Errores del login.
var (
	ErrMissingFields      = errors.New("missing fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
)

// LoginService valida credenciales de usuario contra el store.
type LoginService interface {
	LoginPassword(ctx context.Context, username, password string) (*repository.User, error)
}

type loginService struct {
	store store.Store
}

// NewLoginService crea un nuevo LoginService.
func NewLoginService(s store.Store) LoginService {
	return &loginService{store: s}
}

func (s *loginService) LoginPassword(ctx context.Context, username, password string) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("auth.login"))

	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		// Mismo error que password incorrecto: no filtramos qué usuarios existen.
		log.Debug("unknown user")
		return nil, ErrInvalidCredentials
	}
	if user.DisabledAt != nil {
		return nil, ErrUserDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.Debug("password mismatch", logger.UserID(user.ID))
		return nil, ErrInvalidCredentials
	}

	log.Info("login ok", logger.UserID(user.ID))
	return user, nil
}
