// File: internal/article/model.go
package article

import (
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/user"

	"github.com/google/uuid"
)

// Article represents a blog post.
type Article struct {
	common.BaseModel
	Title        string     `gorm:"type:varchar(200);not null"`
	Slug         string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Content      string     `gorm:"type:text;not null"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Author       *user.User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	ViewCount    int64      `gorm:"not null;default:0"`
	LoveCount    int64      `gorm:"not null;default:0"`
	CommentCount int64      `gorm:"not null;default:0"`
	PublishedAt  time.Time  `gorm:"not null;index"`
}

// TableName specifies the table name for the Article model.
func (Article) TableName() string {
	return "articles"
}

// ListQuery filters the article list.
type ListQuery struct {
	Search   string     `form:"q"`
	AuthorID *uuid.UUID `form:"-"`
	Page     int        `form:"-"`
	PageSize int        `form:"-"`
}

// CreateArticleRequest is the admin payload for a new article.
type CreateArticleRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Content     string     `json:"content" binding:"required"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// UpdateArticleRequest is the admin payload for editing an article.
type UpdateArticleRequest struct {
	Title       *string    `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Content     *string    `json:"content,omitempty" binding:"omitempty,min=1"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// AuthorResponse is the author summary embedded in article responses.
type AuthorResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar"`
}

// ArticleResponse defines the article data sent in API responses.
type ArticleResponse struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Content      string          `json:"content,omitempty"`
	Excerpt      string          `json:"excerpt,omitempty"`
	Author       *AuthorResponse `json:"author,omitempty"`
	ViewCount    int64           `json:"view_count"`
	LoveCount    int64           `json:"love_count"`
	CommentCount int64           `json:"comment_count"`
	PublishedAt  time.Time       `json:"published_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

const excerptRunes = 150

// ToArticleResponse converts an Article. full controls whether the body or
// only an excerpt is included.
func ToArticleResponse(a *Article, full bool) ArticleResponse {
	resp := ArticleResponse{
		ID:           a.ID,
		Title:        a.Title,
		Slug:         a.Slug,
		ViewCount:    a.ViewCount,
		LoveCount:    a.LoveCount,
		CommentCount: a.CommentCount,
		PublishedAt:  a.PublishedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if full {
		resp.Content = a.Content
	} else {
		resp.Excerpt = excerpt(a.Content)
	}
	if a.Author != nil {
		resp.Author = &AuthorResponse{ID: a.Author.ID, Username: a.Author.Username, Avatar: a.Author.Avatar}
	}
	return resp
}

func excerpt(content string) string {
	r := []rune(content)
	if len(r) <= excerptRunes {
		return content
	}
	return string(r[:excerptRunes]) + "…"
}
