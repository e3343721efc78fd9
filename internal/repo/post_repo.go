// Package repo – Post repository
//
// Posts are the only rows the scheduling core writes. The functions here
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Functions:
//
//   - CreatePost(ctx, db, post) -> error
//     Inserts a post (used by the recurrence spawner and by fixtures),
//     generating id/creation timestamp when unset.
//
//   - GetPost(ctx, db, id) -> *domain.Post, error
//     Fetches a single post by id, or ErrNotFound.
//
//   - DuePosts(ctx, db, now, limit) -> []domain.Post, error
//     The batch selector: due scheduled posts of active accounts, account
//     row joined and loaded, oldest due first, capped at limit.
//
//   - MarkPosted / MarkFailed
//     Single-row terminal transitions out of 'scheduled', guarded so a post
//     that already left 'scheduled' is never overwritten.
//
//   - CountPosts / ListPostsPage
//     Read-only inspection for the ops surface.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
)

// CreatePost inserts a post row. A missing ID is replaced with a fresh UUID
// and a zero CreatedAt with the current UTC time; everything else is stored
// as given. On failure, it returns the DB error.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Occurrence == 0 {
		p.Occurrence = 1
	}
	return db.WithContext(ctx).Create(p).Error
}

// GetPost fetches a single post by id, or ErrNotFound if missing.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// DuePosts returns up to limit posts that are due for publication at now:
// status 'scheduled', scheduled_at <= now, and an active owning account.
// Results are ordered ascending by scheduled_at (oldest due first) and carry
// the joined Account row, so the caller can publish without a second query.
// An empty slice with a nil error means nothing is due.
func DuePosts(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Joins("Account").
		Where("posts.status = ? AND posts.scheduled_at <= ?", domain.StatusScheduled, now).
		Where(`"Account"."is_active" = ?`, true).
		Order("posts.scheduled_at asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkPosted transitions a scheduled post to 'posted', recording the publish
// timestamp and result identifiers and clearing any stale error message.
// The update is guarded on status = 'scheduled'; if the post already left
// that state (or does not exist) no row is touched and ErrNotFound is
// returned, so a terminal transition is never overwritten.
func MarkPosted(ctx context.Context, db *gorm.DB, id string, postedAt time.Time, publishedID string, threadIDs []string) error {
	upd := domain.Post{
		Status:      domain.StatusPosted,
		PostedAt:    &postedAt,
		PublishedID: &publishedID,
		ThreadIDs:   threadIDs,
		UpdatedAt:   postedAt,
	}
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND status = ?", id, domain.StatusScheduled).
		Select("status", "posted_at", "published_id", "thread_ids", "error_message", "updated_at").
		Updates(&upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkFailed transitions a scheduled post to 'failed' with the given error
// message, clearing any partial result fields. Like MarkPosted, the update is
// guarded on status = 'scheduled' and returns ErrNotFound when no row moved.
func MarkFailed(ctx context.Context, db *gorm.DB, id, message string, now time.Time) error {
	upd := domain.Post{
		Status:       domain.StatusFailed,
		ErrorMessage: &message,
		UpdatedAt:    now,
	}
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND status = ?", id, domain.StatusScheduled).
		Select("status", "error_message", "published_id", "posted_at", "updated_at").
		Updates(&upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountPosts returns the number of posts, optionally filtered by status
// (empty status counts everything).
func CountPosts(ctx context.Context, db *gorm.DB, status domain.PostStatus) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Post{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListPostsPage returns a paginated slice of posts ordered by creation time
// descending, optionally filtered by status. Use CountPosts for pagination
// metadata.
func ListPostsPage(ctx context.Context, db *gorm.DB, status domain.PostStatus, offset, limit int) ([]domain.Post, error) {
	q := db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Post
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
