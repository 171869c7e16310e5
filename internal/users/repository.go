package users

import "context"

// Repository defines persistence operations for user management.
type Repository interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetRole(ctx context.Context, id int64, role string) error
	SetActive(ctx context.Context, id int64, active bool) error
	CountUsers(ctx context.Context) (total, active int, err error)
}
