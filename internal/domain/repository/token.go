package repository

import (
	"context"
	"time"
)

// AccessToken representa un access token emitido.
// El scope se guarda en su forma canónica entera (bitmask).
type AccessToken struct {
	ID        string
	Token     string
	UserID    string
	ClientID  string // client_id texto (no UUID)
	Scope     uint64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshToken representa un token de refresco. Se persiste hasheado.
type RefreshToken struct {
	ID        string
	UserID    string
	ClientID  string
	TokenHash string
	Scope     uint64
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// CreateAccessTokenInput contiene los datos para crear un access token.
type CreateAccessTokenInput struct {
	Token      string
	UserID     string
	ClientID   string
	Scope      uint64
	TTLSeconds int
}

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	UserID     string
	ClientID   string
	TokenHash  string
	Scope      uint64
	TTLSeconds int
}

// TokenRepository define operaciones sobre access y refresh tokens.
//
// ConsumeRefreshByHash debe ser atómico: de dos redenciones concurrentes del
// mismo token, exactamente una obtiene el token y la otra falla.
type TokenRepository interface {
	// CreateAccess persiste un access token emitido.
	CreateAccess(ctx context.Context, input CreateAccessTokenInput) (*AccessToken, error)

	// GetAccess busca un access token por su valor.
	// Retorna ErrNotFound si no existe, ErrTokenExpired si ya venció.
	GetAccess(ctx context.Context, token string) (*AccessToken, error)

	// CreateRefresh persiste un refresh token (hasheado).
	// Retorna el ID del token creado.
	CreateRefresh(ctx context.Context, input CreateRefreshTokenInput) (string, error)

	// ConsumeRefreshByHash busca un refresh token por hash y lo revoca en la
	// misma operación (check-and-invalidate). Retorna ErrNotFound si no
	// existe, ErrTokenRevoked si ya fue consumido, ErrTokenExpired si venció.
	ConsumeRefreshByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeAllByUser revoca todos los refresh tokens de un usuario.
	// Si clientID no está vacío, filtra solo por ese client.
	// Retorna el número de tokens revocados.
	RevokeAllByUser(ctx context.Context, userID, clientID string) (int, error)
}
