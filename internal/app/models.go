package app

import (
	"blog_backend/internal/article"
	"blog_backend/internal/auth"
	"blog_backend/internal/captcha"
	"blog_backend/internal/comment"
	"blog_backend/internal/feedback"
	"blog_backend/internal/history"
	"blog_backend/internal/notification"
	"blog_backend/internal/relation"
	"blog_backend/internal/user"
)

// Models lists every persisted type in dependency order for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&auth.RefreshToken{},
		&captcha.Captcha{},
		&article.Article{},
		&comment.Comment{},
		&relation.ArticleLike{},
		&relation.Follow{},
		&notification.Notification{},
		&feedback.Feedback{},
		&history.Entry{},
	}
}
