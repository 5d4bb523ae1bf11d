package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenRepository persists refresh-token hashes.
type RefreshTokenRepository interface {
	// Store saves a token for userID and removes that user's previous tokens.
	Store(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID, tokenHash string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type gormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewGORMRefreshTokenRepository creates a new GORM refresh-token repository.
func NewGORMRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &gormRefreshTokenRepository{db: db}
}

func (r *gormRefreshTokenRepository) Store(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&RefreshToken{}).Error; err != nil {
			return fmt.Errorf("delete previous refresh tokens: %w", err)
		}
		rec := &RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: tokenHash,
			ExpiresAt: expiresAt,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(rec).Error; err != nil {
			if common.IsDuplicateKeyError(err) {
				return common.ErrConflict.WithDetails("Refresh token already stored.")
			}
			return fmt.Errorf("store refresh token: %w", err)
		}
		return nil
	})
}

func (r *gormRefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var rec RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Refresh token not found.")
		}
		return nil, err
	}
	return &rec, nil
}

func (r *gormRefreshTokenRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&RefreshToken{}).Where("id = ?", id).Update("last_used_at", at).Error
}

func (r *gormRefreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) (int64, error) {
	res := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *gormRefreshTokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, tokenHash string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND token_hash = ?", userID, tokenHash).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *gormRefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *gormRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
