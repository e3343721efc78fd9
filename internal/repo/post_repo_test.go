package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("post_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, id string, active bool) *domain.Account {
	t.Helper()
	a := &domain.Account{
		ID:          id,
		Name:        "acct-" + id,
		Platform:    domain.PlatformMastodon,
		AccessToken: "tok-" + id,
		IsActive:    active,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
	return a
}

func seedScheduledPost(t *testing.T, db *gorm.DB, id, accountID string, at time.Time) *domain.Post {
	t.Helper()
	p := &domain.Post{
		ID:          id,
		AccountID:   accountID,
		Mode:        domain.ModeSingle,
		Body:        "body " + id,
		Status:      domain.StatusScheduled,
		ScheduledAt: &at,
		Occurrence:  1,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed post %s: %v", id, err)
	}
	return p
}

func TestCreatePost_GeneratesIDAndTimestamps(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	p := &domain.Post{AccountID: "a1", Mode: domain.ModeSingle, Body: "hi", Status: domain.StatusDraft}
	if err := CreatePost(context.Background(), db, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() || p.Occurrence != 1 {
		t.Fatalf("defaults not applied: %+v", p)
	}

	got, err := GetPost(context.Background(), db, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Body != "hi" || got.Status != domain.StatusDraft {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreatePost_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	p := &domain.Post{AccountID: "a1", Mode: domain.ModeSingle, Body: "hi"}
	if err := CreatePost(context.Background(), db, p); err == nil {
		t.Fatalf("expected error creating without table")
	}
}

func TestCreatePost_RoundTripsSerializedFields(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	p := &domain.Post{
		AccountID: "a1",
		Mode:      domain.ModeThread,
		Segments:  []string{"first", "second", "third"},
		Media:     []string{"m1", "m2"},
		Status:    domain.StatusDraft,
	}
	if err := CreatePost(context.Background(), db, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	got, err := GetPost(context.Background(), db, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if len(got.Segments) != 3 || got.Segments[1] != "second" {
		t.Fatalf("segments did not round-trip: %#v", got.Segments)
	}
	if len(got.Media) != 2 || got.Media[0] != "m1" {
		t.Fatalf("media did not round-trip: %#v", got.Media)
	}
}

func TestDuePosts_FiltersAndOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)
	seedAccount(t, db, "a2", false) // inactive

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	seedScheduledPost(t, db, "due-late", "a1", now.Add(-1*time.Minute))
	seedScheduledPost(t, db, "due-early", "a1", now.Add(-2*time.Hour))
	seedScheduledPost(t, db, "future", "a1", now.Add(1*time.Hour))
	seedScheduledPost(t, db, "inactive-owner", "a2", now.Add(-1*time.Hour))

	// Posted/draft rows must never be selected, even when due.
	past := now.Add(-3 * time.Hour)
	posted := seedScheduledPost(t, db, "already-posted", "a1", past)
	if err := db.Model(posted).Update("status", domain.StatusPosted).Error; err != nil {
		t.Fatalf("flip to posted: %v", err)
	}
	draft := &domain.Post{ID: "draft", AccountID: "a1", Mode: domain.ModeSingle, Body: "d", Status: domain.StatusDraft, ScheduledAt: &past}
	if err := db.Create(draft).Error; err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	due, err := DuePosts(context.Background(), db, now, 10)
	if err != nil {
		t.Fatalf("DuePosts: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due posts, got %d: %+v", len(due), due)
	}
	// Oldest due first.
	if due[0].ID != "due-early" || due[1].ID != "due-late" {
		t.Fatalf("unexpected order: %s, %s", due[0].ID, due[1].ID)
	}
	// Account joined in the same query.
	if due[0].Account.AccessToken != "tok-a1" || due[0].Account.Platform != domain.PlatformMastodon {
		t.Fatalf("account not loaded: %+v", due[0].Account)
	}
}

func TestDuePosts_RespectsLimit(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedScheduledPost(t, db, fmt.Sprintf("p%d", i), "a1", now.Add(-time.Duration(i+1)*time.Minute))
	}

	due, err := DuePosts(context.Background(), db, now, 3)
	if err != nil {
		t.Fatalf("DuePosts: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(due))
	}
}

func TestDuePosts_EmptyWhenNothingDue(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	seedScheduledPost(t, db, "future", "a1", now.Add(time.Hour))

	due, err := DuePosts(context.Background(), db, now, 10)
	if err != nil {
		t.Fatalf("DuePosts: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected empty batch, got %d", len(due))
	}
}

func TestDuePosts_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := DuePosts(context.Background(), db, time.Now(), 10); err == nil {
		t.Fatalf("expected error when tables missing")
	}
}

func TestMarkPosted_SetsResultFieldsAndClearsError(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	p := seedScheduledPost(t, db, "p1", "a1", at)
	stale := "old failure"
	if err := db.Model(p).Update("error_message", &stale).Error; err != nil {
		t.Fatalf("seed stale error: %v", err)
	}

	postedAt := at.Add(time.Minute)
	if err := MarkPosted(context.Background(), db, "p1", postedAt, "remote-1", []string{"remote-1", "remote-2"}); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	got, err := GetPost(context.Background(), db, "p1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != domain.StatusPosted {
		t.Fatalf("expected posted, got %s", got.Status)
	}
	if got.PublishedID == nil || *got.PublishedID != "remote-1" {
		t.Fatalf("published id not set: %+v", got.PublishedID)
	}
	if got.PostedAt == nil || !got.PostedAt.Equal(postedAt) {
		t.Fatalf("posted_at not set: %+v", got.PostedAt)
	}
	if len(got.ThreadIDs) != 2 || got.ThreadIDs[1] != "remote-2" {
		t.Fatalf("thread ids not stored: %#v", got.ThreadIDs)
	}
	if got.ErrorMessage != nil {
		t.Fatalf("error message should be cleared, got %q", *got.ErrorMessage)
	}
}

func TestMarkPosted_GuardRefusesNonScheduled(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	p := seedScheduledPost(t, db, "p1", "a1", at)
	if err := db.Model(p).Update("status", domain.StatusFailed).Error; err != nil {
		t.Fatalf("flip to failed: %v", err)
	}

	err := MarkPosted(context.Background(), db, "p1", at, "remote-1", nil)
	if err == nil {
		t.Fatalf("expected guard to refuse a non-scheduled post")
	}
	got, _ := GetPost(context.Background(), db, "p1")
	if got.Status != domain.StatusFailed {
		t.Fatalf("terminal status must not be overwritten, got %s", got.Status)
	}
}

func TestMarkFailed_SetsMessageAndKeepsResultNull(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	seedScheduledPost(t, db, "p1", "a1", at)

	if err := MarkFailed(context.Background(), db, "p1", "remote rejected", at.Add(time.Minute)); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err := GetPost(context.Background(), db, "p1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "remote rejected" {
		t.Fatalf("error message not set: %+v", got.ErrorMessage)
	}
	if got.PublishedID != nil || got.PostedAt != nil {
		t.Fatalf("result fields must stay null on failure: %+v", got)
	}
}

func TestMarkFailed_NotFoundForMissingPost(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	if err := MarkFailed(context.Background(), db, "missing", "x", time.Now()); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing post")
	}
}

func TestCountAndListPostsPage(t *testing.T) {
	db := newRepoDB(t, &domain.Account{}, &domain.Post{})
	seedAccount(t, db, "a1", true)

	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		p := &domain.Post{
			ID:        fmt.Sprintf("p%d", i),
			AccountID: "a1",
			Mode:      domain.ModeSingle,
			Body:      "b",
			Status:    domain.StatusScheduled,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		at := base.Add(time.Hour)
		p.ScheduledAt = &at
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	draft := &domain.Post{ID: "d1", AccountID: "a1", Mode: domain.ModeSingle, Body: "b", Status: domain.StatusDraft, CreatedAt: base}
	if err := db.Create(draft).Error; err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	total, err := CountPosts(context.Background(), db, domain.StatusScheduled)
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 scheduled, got %d", total)
	}
	all, err := CountPosts(context.Background(), db, "")
	if err != nil || all != 5 {
		t.Fatalf("expected 5 total, got %d (%v)", all, err)
	}

	// Offset 1, limit 2 => 2nd and 3rd newest scheduled => p3, p2
	page, err := ListPostsPage(context.Background(), db, domain.StatusScheduled, 1, 2)
	if err != nil {
		t.Fatalf("ListPostsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "p3" || page[1].ID != "p2" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
