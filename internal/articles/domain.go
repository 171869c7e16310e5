// Package articles implements the draft, review and publish lifecycle for
// newsroom content.
package articles

import "time"

// Article lifecycle states. Stored as-is in the database and rendered
// directly in templates.
const (
	StatusDraft     = "draft"
	StatusInReview  = "in_review"
	StatusPublished = "published"
)

// Article is a piece of newsroom content.
type Article struct {
	ID          int64
	Title       string
	Slug        string
	Body        string
	Status      string
	AuthorID    int64
	AuthorName  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// Owned reports whether the article belongs to the given user.
func (a Article) Owned(userID int64) bool {
	return a.AuthorID == userID
}
