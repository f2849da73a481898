package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
)

type userRepo struct{ pool *pgxpool.Pool }

const userCols = `id, username, email, email_verified, COALESCE(name,''), COALESCE(given_name,''), COALESCE(family_name,''), COALESCE(password_hash,''), created_at, disabled_at`

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*repository.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, userID)
}

func (r *userRepo) get(ctx context.Context, q, arg string) (*repository.User, error) {
	var u repository.User
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.EmailVerified,
		&u.Name, &u.GivenName, &u.FamilyName, &u.PasswordHash,
		&u.CreatedAt, &u.DisabledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
