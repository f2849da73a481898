// Package pg implementa los repositorios sobre Postgres (pgx).
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
)

// Store implementa store.Store sobre un pool pgx.
type Store struct{ pool *pgxpool.Pool }

// New abre el pool de conexiones y verifica conectividad.
func New(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	if dsn == "" {
		return nil, repository.ErrNoDatabase
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		pcfg.MaxConns = int32(maxConns)
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Clients() repository.ClientRepository { return &clientRepo{s.pool} }
func (s *Store) Users() repository.UserRepository     { return &userRepo{s.pool} }
func (s *Store) Tokens() repository.TokenRepository   { return &tokenRepo{s.pool} }

// Ping verifica la conexión.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
