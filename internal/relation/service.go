// File: internal/relation/service.go
package relation

import (
	"context"
	"fmt"

	"blog_backend/internal/article"
	"blog_backend/internal/common"
	"blog_backend/internal/notification"
	"blog_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArticleFinder loads liked articles.
type ArticleFinder interface {
	GetArticle(ctx context.Context, id uuid.UUID) (*article.Article, error)
}

// UserFinder loads users taking part in a follow.
type UserFinder interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Notifier records events for article authors.
type Notifier interface {
	Notify(ctx context.Context, recipient, actor uuid.UUID, notifType notification.NotificationType, message string, articleID uuid.UUID)
}

// Service defines likes and follows.
type Service interface {
	ToggleLike(ctx context.Context, userID, articleID uuid.UUID) (*LikeStatus, error)
	LikeStatus(ctx context.Context, userID *uuid.UUID, articleID uuid.UUID) (*LikeStatus, error)
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*FollowStatus, error)
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) (*FollowStatus, error)
	FollowStatus(ctx context.Context, followerID *uuid.UUID, followeeID uuid.UUID) (*FollowStatus, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, *common.Pagination, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, *common.Pagination, error)
}

type service struct {
	repo     Repository
	articles ArticleFinder
	users    UserFinder
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a new relation service.
func NewService(repo Repository, articles ArticleFinder, users UserFinder, notifier Notifier, logger *zap.Logger) Service {
	return &service{repo: repo, articles: articles, users: users, notifier: notifier, logger: logger}
}

func (s *service) ToggleLike(ctx context.Context, userID, articleID uuid.UUID) (*LikeStatus, error) {
	a, err := s.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	status, err := s.repo.ToggleLike(ctx, userID, articleID)
	if err != nil {
		s.logger.Error("Failed to toggle like", zap.String("articleID", articleID.String()), zap.Error(err))
		return nil, err
	}
	if status.Liked {
		liker := "Someone"
		if u, err := s.users.GetUserByID(ctx, userID); err == nil {
			liker = u.Username
		}
		s.notifier.Notify(ctx, a.AuthorID, userID, notification.ArticleLiked,
			fmt.Sprintf("%s liked \"%s\".", liker, a.Title), a.ID)
	}
	return status, nil
}

func (s *service) LikeStatus(ctx context.Context, userID *uuid.UUID, articleID uuid.UUID) (*LikeStatus, error) {
	if _, err := s.articles.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repo.LikeStatus(ctx, userID, articleID)
}

func (s *service) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*FollowStatus, error) {
	if followerID == followeeID {
		return nil, common.ErrBadRequest.WithDetails("You cannot follow yourself.")
	}
	if _, err := s.users.GetUserByID(ctx, followeeID); err != nil {
		return nil, err
	}
	if err := s.repo.Follow(ctx, followerID, followeeID); err != nil {
		return nil, err
	}
	s.logger.Info("User followed", zap.String("follower", followerID.String()), zap.String("followee", followeeID.String()))
	return s.FollowStatus(ctx, &followerID, followeeID)
}

func (s *service) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) (*FollowStatus, error) {
	if err := s.repo.Unfollow(ctx, followerID, followeeID); err != nil {
		return nil, err
	}
	return s.FollowStatus(ctx, &followerID, followeeID)
}

func (s *service) FollowStatus(ctx context.Context, followerID *uuid.UUID, followeeID uuid.UUID) (*FollowStatus, error) {
	followee, err := s.users.GetUserByID(ctx, followeeID)
	if err != nil {
		return nil, err
	}
	status := &FollowStatus{FollowerCount: followee.FollowerCount}
	if followerID != nil {
		if status.Following, err = s.repo.IsFollowing(ctx, *followerID, followeeID); err != nil {
			return nil, err
		}
	}
	return status, nil
}

func (s *service) ListFollowing(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, *common.Pagination, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.ListFollowing(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return users, common.NewPagination(total, page, pageSize), nil
}

func (s *service) ListFollowers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, *common.Pagination, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.ListFollowers(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return users, common.NewPagination(total, page, pageSize), nil
}
