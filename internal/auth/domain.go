package auth

import (
	"time"

	"github.com/newsroom-hq/newsroom/internal/authz"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         authz.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
