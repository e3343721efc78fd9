// Package repo – Account repository
//
// Account rows are written by the surrounding application (the connect/OAuth
// flow); the scheduling core only reads them. The functions here exist for
// that read path, for the ops surface, and for test fixtures.
//
// Error semantics:
//   - When an account is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the scheduler and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateAccount inserts a new Account with a generated UUID and UTC creation
// timestamp. The core itself never calls this outside fixtures; it exists for
// the surrounding application and tests.
func CreateAccount(ctx context.Context, db *gorm.DB, name string, platform domain.Platform, accessToken string, active bool) (*domain.Account, error) {
	a := &domain.Account{
		ID:          uuid.NewString(),
		Name:        name,
		Platform:    platform,
		AccessToken: accessToken,
		IsActive:    active,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAccount fetches a single account by id, or ErrNotFound if missing.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAccounts returns all accounts ordered by creation time ascending.
func ListAccounts(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var out []domain.Account
	err := db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}
