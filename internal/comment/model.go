// File: internal/comment/model.go
package comment

import (
	"time"

	"blog_backend/internal/article"
	"blog_backend/internal/common"
	"blog_backend/internal/user"

	"github.com/google/uuid"
)

// MaxContentRunes bounds a comment body.
const MaxContentRunes = 200

// Comment is a reader's comment on an article.
type Comment struct {
	common.BaseModel
	ArticleID uuid.UUID        `gorm:"type:uuid;not null;index:idx_comment_article_created"`
	Article   *article.Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	User      *user.User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Content   string           `gorm:"type:varchar(800);not null"`
}

// TableName specifies the table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}

// CreateCommentRequest is the payload for posting a comment.
type CreateCommentRequest struct {
	Content      string `json:"content" binding:"required,max=200"`
	CaptchaKey   string `json:"captcha_key"`
	CaptchaValue string `json:"captcha_value"`
}

// CommenterResponse is the author summary embedded in comments.
type CommenterResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar"`
}

// CommentResponse defines the comment data sent in API responses.
type CommentResponse struct {
	ID        uuid.UUID          `json:"id"`
	ArticleID uuid.UUID          `json:"article_id"`
	Content   string             `json:"content"`
	User      *CommenterResponse `json:"user,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// ToCommentResponse converts a Comment model to a CommentResponse.
func ToCommentResponse(c *Comment) CommentResponse {
	resp := CommentResponse{
		ID:        c.ID,
		ArticleID: c.ArticleID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.User != nil {
		resp.User = &CommenterResponse{ID: c.User.ID, Username: c.User.Username, Avatar: c.User.Avatar}
	}
	return resp
}
