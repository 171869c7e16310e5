package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsroom-hq/newsroom/internal/shared"
)

// PGStore looks up user records in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// FindByID fetches a user record by id.
func (s *PGStore) FindByID(ctx context.Context, id int64) (*Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, role, is_active FROM users WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Email, &rec.Name, &rec.Role, &rec.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}
