// File: internal/article/service.go
package article

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service defines the interface for article business logic.
type Service interface {
	ListArticles(ctx context.Context, q ListQuery) ([]Article, *common.Pagination, error)
	// ViewArticle returns an article and counts the view.
	ViewArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	CreateArticle(ctx context.Context, authorID uuid.UUID, req CreateArticleRequest) (*Article, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, req UpdateArticleRequest) (*Article, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	// SyncIndex pushes every article to the search index.
	SyncIndex(ctx context.Context, batchSize int) (synced, failed int, err error)
}

type service struct {
	repo   Repository
	index  SearchIndex
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new article service. index may be nil.
func NewService(repo Repository, index SearchIndex, logger *zap.Logger) Service {
	return &service{repo: repo, index: index, logger: logger, now: time.Now}
}

func (s *service) ListArticles(ctx context.Context, q ListQuery) ([]Article, *common.Pagination, error) {
	if q.Page <= 0 {
		q.Page = common.DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = common.DefaultPageSize
	}

	if term := strings.TrimSpace(q.Search); term != "" && s.index != nil && q.AuthorID == nil {
		ids, total, err := s.index.Search(ctx, term, q.Page, q.PageSize)
		if err == nil {
			articles, err := s.repo.FindByIDs(ctx, ids)
			if err != nil {
				return nil, nil, err
			}
			return articles, common.NewPagination(total, q.Page, q.PageSize), nil
		}
		s.logger.Warn("Search index query failed, falling back to SQL", zap.String("query", term), zap.Error(err))
	}

	articles, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list articles", zap.Error(err))
		return nil, nil, err
	}
	return articles, common.NewPagination(total, q.Page, q.PageSize), nil
}

func (s *service) ViewArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("Failed to increment view count", zap.String("articleID", id.String()), zap.Error(err))
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) CreateArticle(ctx context.Context, authorID uuid.UUID, req CreateArticleRequest) (*Article, error) {
	if req.AuthorID != nil && *req.AuthorID != uuid.Nil {
		authorID = *req.AuthorID
	}
	a := &Article{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		AuthorID:    authorID,
		PublishedAt: s.now(),
	}
	if req.PublishedAt != nil {
		a.PublishedAt = *req.PublishedAt
	}
	a.ID = uuid.New()
	slugValue, err := s.uniqueSlug(ctx, a.Title, a.ID)
	if err != nil {
		return nil, err
	}
	a.Slug = slugValue

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("Failed to create article", zap.Error(err))
		return nil, err
	}
	created, err := s.repo.FindByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, created)
	s.logger.Info("Article created", zap.String("articleID", created.ID.String()), zap.String("slug", created.Slug))
	return created, nil
}

func (s *service) UpdateArticle(ctx context.Context, id uuid.UUID, req UpdateArticleRequest) (*Article, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != a.Title {
			a.Title = title
			if a.Slug, err = s.uniqueSlug(ctx, title, a.ID); err != nil {
				return nil, err
			}
		}
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if req.PublishedAt != nil {
		a.PublishedAt = *req.PublishedAt
	}
	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.Error("Failed to update article", zap.String("articleID", id.String()), zap.Error(err))
		return nil, err
	}
	s.mirror(ctx, a)
	return a, nil
}

func (s *service) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn("Failed to remove article from search index", zap.String("articleID", id.String()), zap.Error(err))
		}
	}
	s.logger.Info("Article deleted", zap.String("articleID", id.String()))
	return nil
}

func (s *service) SyncIndex(ctx context.Context, batchSize int) (int, int, error) {
	if s.index == nil {
		return 0, 0, common.ErrServiceUnavailable.WithDetails("Search index is not configured.")
	}
	var synced, failed int
	err := s.repo.EachBatch(ctx, batchSize, func(batch []Article) error {
		ok, bad, err := s.index.Bulk(ctx, batch)
		synced += ok
		failed += bad
		if err != nil {
			s.logger.Error("Bulk batch failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return synced, failed, fmt.Errorf("walk articles: %w", err)
	}
	return synced, failed, nil
}

// uniqueSlug derives a slug from title; a short ID suffix resolves collisions
// and titles that transliterate to nothing.
func (s *service) uniqueSlug(ctx context.Context, title string, id uuid.UUID) (string, error) {
	base := slug.Make(title)
	if len(base) > 200 {
		base = strings.Trim(base[:200], "-")
	}
	suffix := strings.SplitN(id.String(), "-", 2)[0]
	if base == "" {
		return "article-" + suffix, nil
	}
	exists, err := s.repo.SlugExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return base + "-" + suffix, nil
	}
	return base, nil
}

func (s *service) mirror(ctx context.Context, a *Article) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, a); err != nil {
		s.logger.Warn("Failed to index article", zap.String("articleID", a.ID.String()), zap.Error(err))
	}
}
