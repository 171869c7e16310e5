package articles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsroom-hq/newsroom/internal/shared"
)

const articleColumns = `a.id, a.title, a.slug, a.body, a.status, a.author_id, u.name,
	a.created_at, a.updated_at, a.published_at`

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns a page of articles, newest first.
func (r *PGRepository) List(ctx context.Context, limit, offset int) ([]Article, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+articleColumns+`
		 FROM articles a JOIN users u ON u.id = a.author_id
		 ORDER BY a.updated_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByStatus returns all articles in the given status, oldest first so the
// review queue surfaces what has waited longest.
func (r *PGRepository) ListByStatus(ctx context.Context, status string) ([]Article, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+articleColumns+`
		 FROM articles a JOIN users u ON u.id = a.author_id
		 WHERE a.status = $1
		 ORDER BY a.updated_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Get fetches a single article by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Article, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+articleColumns+`
		 FROM articles a JOIN users u ON u.id = a.author_id
		 WHERE a.id = $1`, id)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, shared.ErrNotFound
		}
		return Article{}, err
	}
	return article, nil
}

// Create inserts a new article and returns its id. A slug collision maps to
// shared.ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, article Article) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO articles (title, slug, body, status, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING id`,
		article.Title, article.Slug, article.Body, article.Status, article.AuthorID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites the mutable fields of an article.
func (r *PGRepository) Update(ctx context.Context, article Article) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE articles SET title = $2, body = $3, updated_at = NOW() WHERE id = $1`,
		article.ID, article.Title, article.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetStatus moves an article to a new status. When publish is true the
// published_at timestamp is stamped as well.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status string, publish bool) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if publish {
		tag, err = r.pool.Exec(ctx,
			`UPDATE articles SET status = $2, published_at = NOW(), updated_at = NOW() WHERE id = $1`,
			id, status)
	} else {
		tag, err = r.pool.Exec(ctx,
			`UPDATE articles SET status = $2, updated_at = NOW() WHERE id = $1`,
			id, status)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an article.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the total number of articles.
func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total)
	return total, err
}

// CountByStatus returns article counts grouped by status.
func (r *PGRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM articles GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountByAuthor returns the author's draft and published counts.
func (r *PGRepository) CountByAuthor(ctx context.Context, authorID int64) (int, int, error) {
	var drafts, published int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = $2), COUNT(*) FILTER (WHERE status = $3)
		 FROM articles WHERE author_id = $1`,
		authorID, StatusDraft, StatusPublished).Scan(&drafts, &published)
	return drafts, published, err
}

func collect(rows pgx.Rows) ([]Article, error) {
	var list []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, article)
	}
	return list, rows.Err()
}

func scanArticle(row pgx.Row) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.Status, &a.AuthorID, &a.AuthorName,
		&a.CreatedAt, &a.UpdatedAt, &a.PublishedAt)
	return a, err
}

var _ Repository = (*PGRepository)(nil)
