package articles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/newsroom-hq/newsroom/internal/shared"
)

// ErrInvalidTransition is returned when an article cannot move to the
// requested status from its current one.
var ErrInvalidTransition = errors.New("articles: invalid status transition")

// ErrSchedulingUnavailable is returned when no job queue is configured.
var ErrSchedulingUnavailable = errors.New("articles: scheduling unavailable")

const slugRetryLimit = 5

// Scheduler enqueues a deferred publish of an article.
type Scheduler interface {
	SchedulePublish(ctx context.Context, articleID int64, at time.Time) error
}

// Service orchestrates the article lifecycle.
type Service struct {
	repo      Repository
	scheduler Scheduler
	audit     *shared.AuditLogger
	logger    *slog.Logger
}

// NewService constructs a Service. The scheduler may be nil; scheduling then
// reports ErrSchedulingUnavailable.
func NewService(repo Repository, scheduler Scheduler, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, scheduler: scheduler, audit: audit, logger: logger}
}

// ListPage returns a page of articles with pagination metadata.
func (s *Service) ListPage(ctx context.Context, page, perPage int) ([]Article, shared.Pagination, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	list, err := s.repo.List(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}

// ReviewQueue returns all articles waiting for review, oldest first.
func (s *Service) ReviewQueue(ctx context.Context) ([]Article, error) {
	return s.repo.ListByStatus(ctx, StatusInReview)
}

// Get fetches one article.
func (s *Service) Get(ctx context.Context, id int64) (Article, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new draft owned by the author. Slug collisions retry with
// a numeric suffix a few times before giving up.
func (s *Service) Create(ctx context.Context, authorID int64, title, body string) (Article, error) {
	base := Slugify(title)
	article := Article{Title: title, Body: body, Status: StatusDraft, AuthorID: authorID}
	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		article.Slug = base
		if attempt > 0 {
			article.Slug = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		id, err := s.repo.Create(ctx, article)
		if errors.Is(err, shared.ErrDuplicate) {
			continue
		}
		if err != nil {
			return Article{}, err
		}
		article.ID = id
		s.recordAudit(ctx, authorID, "article.created", id, map[string]any{"slug": article.Slug})
		return article, nil
	}
	return Article{}, shared.ErrDuplicate
}

// Update rewrites an article's title and body. The slug stays stable so
// published links keep working.
func (s *Service) Update(ctx context.Context, actorID int64, id int64, title, body string) error {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	article.Title = title
	article.Body = body
	if err := s.repo.Update(ctx, article); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "article.updated", id, nil)
	return nil
}

// SubmitForReview moves a draft into the review queue.
func (s *Service) SubmitForReview(ctx context.Context, actorID, id int64) error {
	return s.transition(ctx, actorID, id, StatusInReview, "article.submitted", StatusDraft)
}

// Publish makes an article live. Editors may publish straight from draft,
// skipping the queue.
func (s *Service) Publish(ctx context.Context, actorID, id int64) error {
	return s.transition(ctx, actorID, id, StatusPublished, "article.published", StatusDraft, StatusInReview)
}

// SchedulePublish queues a publish of the article at the given time. The
// article must still be publishable when it is scheduled; the queued task
// re-checks at execution time.
func (s *Service) SchedulePublish(ctx context.Context, actorID, id int64, at time.Time) error {
	if s.scheduler == nil {
		return ErrSchedulingUnavailable
	}
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if article.Status == StatusPublished {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, article.Status, StatusPublished)
	}
	if err := s.scheduler.SchedulePublish(ctx, id, at); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "article.publish_scheduled", id, map[string]any{"at": at.Format(time.RFC3339)})
	return nil
}

// PublishScheduled runs the deferred publish from the job queue. An article
// already live by then is left alone.
func (s *Service) PublishScheduled(ctx context.Context, id int64) error {
	err := s.transition(ctx, 0, id, StatusPublished, "article.published", StatusDraft, StatusInReview)
	if errors.Is(err, ErrInvalidTransition) {
		if s.logger != nil {
			s.logger.Info("scheduled publish skipped", slog.Int64("article_id", id), slog.Any("reason", err))
		}
		return nil
	}
	return err
}

// Reject sends a submitted article back to draft.
func (s *Service) Reject(ctx context.Context, actorID, id int64) error {
	return s.transition(ctx, actorID, id, StatusDraft, "article.rejected", StatusInReview)
}

// Delete removes an article permanently.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "article.deleted", id, nil)
	return nil
}

// StatusCounts returns published, in-review and draft totals.
func (s *Service) StatusCounts(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}

// AuthorCounts returns the author's own draft and published totals.
func (s *Service) AuthorCounts(ctx context.Context, authorID int64) (drafts, published int, err error) {
	return s.repo.CountByAuthor(ctx, authorID)
}

func (s *Service) transition(ctx context.Context, actorID, id int64, target, action string, from ...string) error {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	allowed := false
	for _, status := range from {
		if article.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, article.Status, target)
	}
	if err := s.repo.SetStatus(ctx, id, target, target == StatusPublished); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, action, id, map[string]any{"from": article.Status})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, articleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "article",
		EntityID: strconv.FormatInt(articleID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("articles: audit record", slog.Any("error", err))
	}
}

// Slugify lowercases a title and collapses everything that is not a letter
// or digit into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
