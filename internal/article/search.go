package article

import (
	"context"
	"fmt"
	"time"

	"blog_backend/internal/platform/elasticsearch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchIndex mirrors articles into a full-text index.
type SearchIndex interface {
	Index(ctx context.Context, a *Article) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, page, pageSize int) ([]uuid.UUID, int64, error)
	Bulk(ctx context.Context, articles []Article) (synced, failed int, err error)
}

type esIndex struct {
	client *elasticsearch.ESClientWrapper
	logger *zap.Logger
}

// NewSearchIndex returns nil when Elasticsearch is not configured; callers
// then fall back to SQL search.
func NewSearchIndex(client *elasticsearch.ESClientWrapper, logger *zap.Logger) SearchIndex {
	if client == nil {
		return nil
	}
	return &esIndex{client: client, logger: logger.Named("article_index")}
}

type articleDocument struct {
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Content        string `json:"content"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username,omitempty"`
	ViewCount      int64  `json:"view_count"`
	LoveCount      int64  `json:"love_count"`
	PublishedAt    string `json:"published_at"`
}

func toDocument(a *Article) articleDocument {
	doc := articleDocument{
		Title:       a.Title,
		Slug:        a.Slug,
		Content:     a.Content,
		AuthorID:    a.AuthorID.String(),
		ViewCount:   a.ViewCount,
		LoveCount:   a.LoveCount,
		PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
	}
	if a.Author != nil {
		doc.AuthorUsername = a.Author.Username
	}
	return doc
}

func (i *esIndex) Index(ctx context.Context, a *Article) error {
	return elasticsearch.IndexDocument(ctx, i.client, elasticsearch.ArticlesIndexName, a.ID.String(), toDocument(a))
}

func (i *esIndex) Remove(ctx context.Context, id uuid.UUID) error {
	return elasticsearch.DeleteDocument(ctx, i.client, elasticsearch.ArticlesIndexName, id.String())
}

func (i *esIndex) Search(ctx context.Context, query string, page, pageSize int) ([]uuid.UUID, int64, error) {
	from := (page - 1) * pageSize
	if from < 0 {
		from = 0
	}
	raw, total, err := elasticsearch.SearchIDs(ctx, i.client, elasticsearch.ArticlesIndexName, query,
		[]string{"title^3", "content", "author_username"}, from, pageSize)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			i.logger.Warn("Skipping search hit with non-UUID id", zap.String("id", s))
			continue
		}
		ids = append(ids, id)
	}
	return ids, total, nil
}

func (i *esIndex) Bulk(ctx context.Context, articles []Article) (int, int, error) {
	items := make([]elasticsearch.BulkItem, len(articles))
	for n := range articles {
		items[n] = elasticsearch.BulkItem{ID: articles[n].ID.String(), Doc: toDocument(&articles[n])}
	}
	synced, failed, err := elasticsearch.BulkIndex(ctx, i.client, elasticsearch.ArticlesIndexName, items, "false", i.logger)
	if err != nil {
		return synced, failed, fmt.Errorf("bulk index articles: %w", err)
	}
	return synced, failed, nil
}
