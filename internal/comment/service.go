// File: internal/comment/service.go
package comment

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"blog_backend/internal/article"
	"blog_backend/internal/captcha"
	"blog_backend/internal/common"
	"blog_backend/internal/notification"
	"blog_backend/internal/platform/attempts"
	"blog_backend/internal/platform/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArticleFinder loads the article a comment targets.
type ArticleFinder interface {
	GetArticle(ctx context.Context, id uuid.UUID) (*article.Article, error)
}

// CaptchaVerifier checks and consumes a captcha answer.
type CaptchaVerifier interface {
	Verify(ctx context.Context, key, value string) error
}

// Notifier records events for article authors.
type Notifier interface {
	Notify(ctx context.Context, recipient, actor uuid.UUID, notifType notification.NotificationType, message string, articleID uuid.UUID)
}

// Service defines the interface for comment business logic.
type Service interface {
	ListComments(ctx context.Context, articleID uuid.UUID, page, pageSize int) ([]Comment, *common.Pagination, error)
	CreateComment(ctx context.Context, userID, articleID uuid.UUID, req CreateCommentRequest) (*Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error
}

type service struct {
	repo     Repository
	articles ArticleFinder
	captcha  CaptchaVerifier
	notifier Notifier
	limiter  *attempts.Limiter
	logger   *zap.Logger
}

// NewService creates a new comment service. limiter counts captcha failures
// per user.
func NewService(repo Repository, articles ArticleFinder, captcha CaptchaVerifier, notifier Notifier, limiter *attempts.Limiter, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		articles: articles,
		captcha:  captcha,
		notifier: notifier,
		limiter:  limiter,
		logger:   logger,
	}
}

func (s *service) ListComments(ctx context.Context, articleID uuid.UUID, page, pageSize int) ([]Comment, *common.Pagination, error) {
	if _, err := s.articles.GetArticle(ctx, articleID); err != nil {
		return nil, nil, err
	}
	comments, total, err := s.repo.ListByArticle(ctx, articleID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list comments", zap.String("articleID", articleID.String()), zap.Error(err))
		return nil, nil, err
	}
	return comments, common.NewPagination(total, page, pageSize), nil
}

func (s *service) CreateComment(ctx context.Context, userID, articleID uuid.UUID, req CreateCommentRequest) (*Comment, error) {
	content := sanitize.Text(req.Content)
	if content == "" {
		return nil, common.ErrBadRequest.WithDetails("Comment content cannot be empty.")
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Comment content cannot exceed %d characters.", MaxContentRunes))
	}

	key := userID.String()
	if st := s.limiter.Check(key); st.Locked {
		return nil, lockedError(st)
	}
	if err := s.captcha.Verify(ctx, req.CaptchaKey, req.CaptchaValue); err != nil {
		if !errors.Is(err, captcha.ErrCaptchaInvalid) && !errors.Is(err, captcha.ErrCaptchaExpired) {
			return nil, err
		}
		st := s.limiter.Fail(key)
		s.logger.Info("Comment captcha failed", zap.String("userID", key), zap.Int("remaining", st.Remaining))
		if st.Locked {
			return nil, lockedError(st)
		}
		apiErr, _ := common.IsAPIError(err)
		return nil, apiErr.WithDetails(map[string]int{"remaining_attempts": st.Remaining})
	}
	s.limiter.Reset(key)

	a, err := s.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	c := &Comment{ArticleID: articleID, UserID: userID, Content: content}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create comment", zap.String("articleID", articleID.String()), zap.Error(err))
		return nil, err
	}
	created, err := s.repo.FindByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	commenter := "Someone"
	if created.User != nil {
		commenter = created.User.Username
	}
	s.notifier.Notify(ctx, a.AuthorID, userID, notification.ArticleCommented,
		fmt.Sprintf("%s commented on \"%s\": %s", commenter, a.Title, preview(content)), a.ID)

	s.logger.Info("Comment created", zap.String("commentID", created.ID.String()), zap.String("articleID", articleID.String()))
	return created, nil
}

func (s *service) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return common.ErrForbidden.WithDetails("You can only delete your own comments.")
	}
	if err := s.repo.Delete(ctx, c); err != nil {
		return err
	}
	s.logger.Info("Comment deleted", zap.String("commentID", commentID.String()))
	return nil
}

func lockedError(st attempts.Status) *common.APIError {
	return common.NewTooManyRequestsError(
		fmt.Sprintf("Too many wrong captcha answers. Try again in %s.", attempts.FormatWait(st.RetryAfter)),
		st.RetryAfter,
	)
}

func preview(content string) string {
	const max = 50
	if utf8.RuneCountInString(content) <= max {
		return content
	}
	return string([]rune(content)[:max]) + "…"
}
