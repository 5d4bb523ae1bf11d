package captcha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog_backend/internal/common"

	"gorm.io/gorm"
)

// Repository stores captcha challenges.
type Repository interface {
	Create(ctx context.Context, c *Captcha) error
	Find(ctx context.Context, key string) (*Captcha, error)
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM captcha repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, c *Captcha) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *gormRepository) Find(ctx context.Context, key string) (*Captcha, error) {
	var c Captcha
	if err := r.db.WithContext(ctx).Where("captcha_key = ?", key).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Captcha not found.")
		}
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("captcha_key = ?", key).Delete(&Captcha{}).Error
}

func (r *gormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&Captcha{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired captchas: %w", res.Error)
	}
	return res.RowsAffected, nil
}
