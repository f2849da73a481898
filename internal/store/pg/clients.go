package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
)

type clientRepo struct{ pool *pgxpool.Pool }

func (r *clientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	const q = `
		SELECT id, client_id, name, client_type, trusted, redirect_uris, COALESCE(secret,''), COALESCE(owner_user_id::text,'')
		FROM oauth_clients
		WHERE client_id = $1`
	var c repository.Client
	err := r.pool.QueryRow(ctx, q, clientID).Scan(
		&c.ID, &c.ClientID, &c.Name, &c.Type, &c.Trusted, &c.RedirectURIs, &c.Secret, &c.OwnerUserID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
