package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
)

// Service orchestrates user management operations.
type Service struct {
	repo       Repository
	identities *identity.Provider
	audit      *shared.AuditLogger
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, identities *identity.Provider, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, identities: identities, audit: audit, logger: logger}
}

// ListUsers returns every user account.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// AssignRole moves a user onto another known role. The identity cache entry
// is dropped so the user's next request re-derives permissions.
func (s *Service) AssignRole(ctx context.Context, actorID, userID int64, rawRole string) error {
	role := authz.NormalizeRole(rawRole)
	if !authz.KnownRole(role) {
		return fmt.Errorf("users: unknown role %q", rawRole)
	}
	previous, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SetRole(ctx, userID, string(role)); err != nil {
		return err
	}
	s.identities.Invalidate(ctx, userID)
	s.recordAudit(ctx, actorID, "user.role_assigned", userID, map[string]any{
		"from": string(previous.Role),
		"to":   string(role),
	})
	return nil
}

// SetActive activates or deactivates an account. Deactivation is fail-closed
// at the identity boundary: once the cache entry is dropped, the user's next
// request resolves to no identity.
func (s *Service) SetActive(ctx context.Context, actorID, userID int64, active bool) error {
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	s.identities.Invalidate(ctx, userID)
	action := "user.deactivated"
	if active {
		action = "user.activated"
	}
	s.recordAudit(ctx, actorID, action, userID, nil)
	return nil
}

// Counts returns total and active user counts for the dashboard.
func (s *Service) Counts(ctx context.Context) (total, active int, err error) {
	return s.repo.CountUsers(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("users: audit record", slog.Any("error", err))
	}
}
