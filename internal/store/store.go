// Package store expone el acceso a datos del servicio: clients, users y
// tokens. Soporta un backend en memoria (dev/testing) y Postgres.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/littlejohn/internal/config"
	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	"github.com/dropDatabas3/littlejohn/internal/store/pg"
)

// Store agrupa los repositorios del dominio.
type Store interface {
	Clients() repository.ClientRepository
	Users() repository.UserRepository
	Tokens() repository.TokenRepository

	// Ping verifica la conexión al backend.
	Ping(ctx context.Context) error

	// Close libera recursos del backend.
	Close()
}

// New crea un Store según el driver configurado.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "postgres", "pg":
		return pg.New(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
