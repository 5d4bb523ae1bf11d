// File: internal/article/repository.go
package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for article data operations.
type Repository interface {
	Create(ctx context.Context, a *Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*Article, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Article, error)
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListQuery) ([]Article, int64, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	Count(ctx context.Context, from, to *time.Time) (int64, error)
	Totals(ctx context.Context) (views, loves int64, err error)
	EachBatch(ctx context.Context, size int, fn func([]Article) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM article repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, a *Article) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if common.IsDuplicateKeyError(err) {
			return common.ErrConflict.WithDetails("An article with this slug already exists.")
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	var a Article
	err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Article not found.")
		}
		return nil, err
	}
	return &a, nil
}

// FindByIDs returns the articles in the order of ids, skipping missing ones.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Article
	if err := r.db.WithContext(ctx).Preload("Author").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find articles by ids: %w", err)
	}
	byID := make(map[uuid.UUID]Article, len(rows))
	for _, a := range rows {
		byID[a.ID] = a
	}
	out := make([]Article, 0, len(rows))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *gormRepository) Update(ctx context.Context, a *Article) error {
	err := r.db.WithContext(ctx).Model(a).Select("title", "slug", "content", "published_at", "updated_at").Updates(a).Error
	if err != nil {
		if common.IsDuplicateKeyError(err) {
			return common.ErrConflict.WithDetails("An article with this slug already exists.")
		}
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

// Delete removes an article together with the rows that reference it.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"comments", "article_likes"} {
			if tx.Migrator().HasTable(table) {
				if err := tx.Exec("DELETE FROM "+table+" WHERE article_id = ?", id).Error; err != nil {
					return fmt.Errorf("delete %s of article: %w", table, err)
				}
			}
		}
		result := tx.Delete(&Article{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete article: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("Article not found.")
		}
		return nil
	})
}

// List returns articles newest first with their authors.
func (r *gormRepository) List(ctx context.Context, q ListQuery) ([]Article, int64, error) {
	var articles []Article
	var total int64

	query := r.db.WithContext(ctx).Model(&Article{})
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}
	if q.AuthorID != nil {
		query = query.Where("author_id = ?", *q.AuthorID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	err := query.Preload("Author").
		Order("published_at DESC").
		Offset(common.Offset(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&articles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	return articles, total, nil
}

func (r *gormRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&Article{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *gormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Article{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of articles published in [from, to).
func (r *gormRepository) Count(ctx context.Context, from, to *time.Time) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(&Article{})
	if from != nil {
		query = query.Where("published_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("published_at < ?", *to)
	}
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (r *gormRepository) Totals(ctx context.Context) (int64, int64, error) {
	var row struct {
		Views int64
		Loves int64
	}
	err := r.db.WithContext(ctx).Model(&Article{}).
		Select("COALESCE(SUM(view_count), 0) AS views, COALESCE(SUM(love_count), 0) AS loves").
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("sum article counters: %w", err)
	}
	return row.Views, row.Loves, nil
}

// EachBatch walks all articles in primary-key order.
func (r *gormRepository) EachBatch(ctx context.Context, size int, fn func([]Article) error) error {
	var batch []Article
	result := r.db.WithContext(ctx).Preload("Author").FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return result.Error
}
