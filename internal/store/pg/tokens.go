package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
)

type tokenRepo struct{ pool *pgxpool.Pool }

func (r *tokenRepo) CreateAccess(ctx context.Context, in repository.CreateAccessTokenInput) (*repository.AccessToken, error) {
	const q = `
		INSERT INTO access_tokens (token, user_id, client_id, scope, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW() + $5::interval)
		RETURNING id, token, user_id, client_id, scope, issued_at, expires_at`
	ttl := fmt.Sprintf("%d seconds", in.TTLSeconds)
	var at repository.AccessToken
	err := r.pool.QueryRow(ctx, q, in.Token, in.UserID, in.ClientID, in.Scope, ttl).Scan(
		&at.ID, &at.Token, &at.UserID, &at.ClientID, &at.Scope, &at.IssuedAt, &at.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *tokenRepo) GetAccess(ctx context.Context, token string) (*repository.AccessToken, error) {
	const q = `
		SELECT id, token, user_id, client_id, scope, issued_at, expires_at
		FROM access_tokens
		WHERE token = $1`
	var at repository.AccessToken
	err := r.pool.QueryRow(ctx, q, token).Scan(
		&at.ID, &at.Token, &at.UserID, &at.ClientID, &at.Scope, &at.IssuedAt, &at.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(at.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	return &at, nil
}

func (r *tokenRepo) CreateRefresh(ctx context.Context, in repository.CreateRefreshTokenInput) (string, error) {
	const q = `
		INSERT INTO refresh_tokens (user_id, client_id, token_hash, scope, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW() + $5::interval)
		RETURNING id`
	ttl := fmt.Sprintf("%d seconds", in.TTLSeconds)
	var id string
	err := r.pool.QueryRow(ctx, q, in.UserID, in.ClientID, in.TokenHash, in.Scope, ttl).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ConsumeRefreshByHash revoca y retorna el token en un solo UPDATE condicional,
// de modo que dos redenciones concurrentes no pueden ganar las dos.
func (r *tokenRepo) ConsumeRefreshByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	const q = `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
		RETURNING id, user_id, client_id, token_hash, scope, issued_at, expires_at, revoked_at`
	var rt repository.RefreshToken
	err := r.pool.QueryRow(ctx, q, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.ClientID, &rt.TokenHash, &rt.Scope,
		&rt.IssuedAt, &rt.ExpiresAt, &rt.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguir "nunca existió" de "ya consumido"
		var exists bool
		if e := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE token_hash=$1)`, tokenHash).Scan(&exists); e == nil && exists {
			return nil, repository.ErrTokenRevoked
		}
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	return &rt, nil
}

func (r *tokenRepo) RevokeAllByUser(ctx context.Context, userID, clientID string) (int, error) {
	q := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`
	args := []any{userID}
	if clientID != "" {
		q += ` AND client_id = $2`
		args = append(args, clientID)
	}
	ct, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}
