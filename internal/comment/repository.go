// File: internal/comment/repository.go
package comment

import (
	"context"
	"errors"
	"fmt"

	"blog_backend/internal/article"
	"blog_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for comment data operations.
type Repository interface {
	// Create inserts the comment and bumps the article's comment_count.
	Create(ctx context.Context, c *Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListByArticle(ctx context.Context, articleID uuid.UUID, page, pageSize int) ([]Comment, int64, error)
	// Delete removes the comment and decrements the article's comment_count.
	Delete(ctx context.Context, c *Comment) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM comment repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Article", "User").Create(c).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		result := tx.Model(&article.Article{}).Where("id = ?", c.ArticleID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1))
		if result.Error != nil {
			return fmt.Errorf("failed to bump comment count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Article not found.")
		}
		return nil
	})
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var c Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Comment not found.")
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return &c, nil
}

// ListByArticle returns an article's comments newest first.
func (r *gormRepository) ListByArticle(ctx context.Context, articleID uuid.UUID, page, pageSize int) ([]Comment, int64, error) {
	var comments []Comment
	var total int64

	query := r.db.WithContext(ctx).Model(&Comment{}).Where("article_id = ?", articleID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	err := query.Preload("User").
		Order("created_at DESC").
		Offset(common.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (r *gormRepository) Delete(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Comment{}, "id = ?", c.ID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete comment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Comment not found.")
		}
		err := tx.Model(&article.Article{}).
			Where("id = ? AND comment_count > 0", c.ArticleID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
		if err != nil {
			return fmt.Errorf("failed to decrement comment count: %w", err)
		}
		return nil
	})
}
