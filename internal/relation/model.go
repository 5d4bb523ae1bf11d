// File: internal/relation/model.go
package relation

import (
	"time"

	"blog_backend/internal/article"
	"blog_backend/internal/user"

	"github.com/google/uuid"
)

// ArticleLike records that a user loves an article.
type ArticleLike struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ArticleID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time

	User    *user.User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Article *article.Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the ArticleLike model.
func (ArticleLike) TableName() string {
	return "article_likes"
}

// Follow records that FollowerID follows FolloweeID.
type Follow struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time

	Follower *user.User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followee *user.User `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Follow model.
func (Follow) TableName() string {
	return "follows"
}

// LikeStatus is returned by the like endpoints.
type LikeStatus struct {
	Liked     bool  `json:"liked"`
	LoveCount int64 `json:"love_count"`
}

// FollowStatus is returned by the follow endpoints.
type FollowStatus struct {
	Following     bool  `json:"following"`
	FollowerCount int64 `json:"follower_count"`
}
