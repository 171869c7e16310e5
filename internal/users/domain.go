package users

import (
	"time"

	"github.com/newsroom-hq/newsroom/internal/authz"
)

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      authz.Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
