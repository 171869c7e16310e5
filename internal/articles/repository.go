package articles

import "context"

// Repository defines persistence operations for articles.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Article, error)
	ListByStatus(ctx context.Context, status string) ([]Article, error)
	Get(ctx context.Context, id int64) (Article, error)
	Create(ctx context.Context, article Article) (int64, error)
	Update(ctx context.Context, article Article) error
	SetStatus(ctx context.Context, id int64, status string, publish bool) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByAuthor(ctx context.Context, authorID int64) (drafts, published int, err error)
}
