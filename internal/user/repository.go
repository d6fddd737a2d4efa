package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{
		pool: pool,
	}
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT
			u.id,
			u.display_name,
			u.tier,
			u.is_active,
			u.created_at
		FROM public.users u
		WHERE u.id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)

	var u User
	if err := row.Scan(
		&u.ID,
		&u.DisplayName,
		&u.Tier,
		&u.IsActive,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID query failed: %w", err)
	}

	return &u, nil
}
