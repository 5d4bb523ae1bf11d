// File: internal/feedback/repository.go
package feedback

import (
	"context"
	"errors"
	"fmt"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for feedback data operations.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	FindByID(ctx context.Context, id uuid.UUID) (*Feedback, error)
	Update(ctx context.Context, f *Feedback) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListQuery) ([]Feedback, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM feedback repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, f *Feedback) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(f).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	var f Feedback
	if err := r.db.WithContext(ctx).Preload("User").First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Feedback not found.")
		}
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return &f, nil
}

// Update writes the editable columns, including a cleared resolved_at.
func (r *gormRepository) Update(ctx context.Context, f *Feedback) error {
	err := r.db.WithContext(ctx).Model(f).
		Select("issue_type", "description", "status", "resolved_at", "updated_at").
		Updates(f).Error
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Feedback{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Feedback not found.")
	}
	return nil
}

// List returns feedback newest first.
func (r *gormRepository) List(ctx context.Context, q ListQuery) ([]Feedback, int64, error) {
	var items []Feedback
	var total int64

	query := r.db.WithContext(ctx).Model(&Feedback{})
	if q.IssueType != "" {
		query = query.Where("issue_type = ?", q.IssueType)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}
	err := query.Preload("User").
		Order("created_at DESC").
		Offset(common.Offset(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	return items, total, nil
}
