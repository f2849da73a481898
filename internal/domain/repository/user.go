package repository

import (
	"context"
	"time"
)

// User representa un usuario del sistema.
type User struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	PasswordHash  string // bcrypt
	CreatedAt     time.Time
	DisabledAt    *time.Time
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByUsername busca un usuario por username.
	// Retorna ErrNotFound si no existe.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, userID string) (*User, error)
}
