// File: internal/relation/repository.go
package relation

import (
	"context"
	"errors"
	"fmt"

	"blog_backend/internal/article"
	"blog_backend/internal/common"
	"blog_backend/internal/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the data operations for likes and follows. Counter
// columns on articles and users change in the same transaction as the rows.
type Repository interface {
	ToggleLike(ctx context.Context, userID, articleID uuid.UUID) (*LikeStatus, error)
	LikeStatus(ctx context.Context, userID *uuid.UUID, articleID uuid.UUID) (*LikeStatus, error)
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, int64, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM relation repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ToggleLike(ctx context.Context, userID, articleID uuid.UUID) (*LikeStatus, error) {
	status := &LikeStatus{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&ArticleLike{}, "user_id = ? AND article_id = ?", userID, articleID)
		if result.Error != nil {
			return fmt.Errorf("remove like: %w", result.Error)
		}
		delta := -1
		if result.RowsAffected == 0 {
			if err := tx.Create(&ArticleLike{UserID: userID, ArticleID: articleID}).Error; err != nil {
				return fmt.Errorf("add like: %w", err)
			}
			delta = 1
			status.Liked = true
		}
		q := tx.Model(&article.Article{}).Where("id = ?", articleID)
		if delta < 0 {
			q = q.Where("love_count > 0")
		}
		if err := q.UpdateColumn("love_count", gorm.Expr("love_count + ?", delta)).Error; err != nil {
			return fmt.Errorf("update love count: %w", err)
		}
		return tx.Model(&article.Article{}).Where("id = ?", articleID).
			Select("love_count").Scan(&status.LoveCount).Error
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (r *gormRepository) LikeStatus(ctx context.Context, userID *uuid.UUID, articleID uuid.UUID) (*LikeStatus, error) {
	status := &LikeStatus{}
	db := r.db.WithContext(ctx)
	if err := db.Model(&article.Article{}).Where("id = ?", articleID).Select("love_count").Scan(&status.LoveCount).Error; err != nil {
		return nil, fmt.Errorf("read love count: %w", err)
	}
	if userID != nil {
		var n int64
		if err := db.Model(&ArticleLike{}).Where("user_id = ? AND article_id = ?", *userID, articleID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("read like: %w", err)
		}
		status.Liked = n > 0
	}
	return status, nil
}

func (r *gormRepository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&Follow{FollowerID: followerID, FolloweeID: followeeID}).Error; err != nil {
			if common.IsDuplicateKeyError(err) {
				return common.ErrConflict.WithDetails("Already following this user.")
			}
			return fmt.Errorf("create follow: %w", err)
		}
		return adjustFollowCounters(tx, followerID, followeeID, 1)
	})
}

func (r *gormRepository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Follow{}, "follower_id = ? AND followee_id = ?", followerID, followeeID)
		if result.Error != nil {
			return fmt.Errorf("delete follow: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.ErrNotFound.WithDetails("You are not following this user.")
		}
		return adjustFollowCounters(tx, followerID, followeeID, -1)
	})
}

func adjustFollowCounters(tx *gorm.DB, followerID, followeeID uuid.UUID, delta int) error {
	follower := tx.Model(&user.User{}).Where("id = ?", followerID)
	followee := tx.Model(&user.User{}).Where("id = ?", followeeID)
	if delta < 0 {
		follower = follower.Where("follow_count > 0")
		followee = followee.Where("follower_count > 0")
	}
	if err := follower.UpdateColumn("follow_count", gorm.Expr("follow_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("update follow count: %w", err)
	}
	if err := followee.UpdateColumn("follower_count", gorm.Expr("follower_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("update follower count: %w", err)
	}
	return nil
}

func (r *gormRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var f Follow
	err := r.db.WithContext(ctx).Where("follower_id = ? AND followee_id = ?", followerID, followeeID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read follow: %w", err)
	}
	return true, nil
}

// ListFollowing returns the users userID follows, most recent first.
func (r *gormRepository) ListFollowing(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, int64, error) {
	return r.listUsers(ctx, "followee_id", "follower_id", userID, page, pageSize)
}

// ListFollowers returns the users following userID, most recent first.
func (r *gormRepository) ListFollowers(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, int64, error) {
	return r.listUsers(ctx, "follower_id", "followee_id", userID, page, pageSize)
}

func (r *gormRepository) listUsers(ctx context.Context, joinCol, filterCol string, userID uuid.UUID, page, pageSize int) ([]user.User, int64, error) {
	var users []user.User
	var total int64

	query := r.db.WithContext(ctx).Model(&user.User{}).
		Joins("JOIN follows ON follows."+joinCol+" = users.id").
		Where("follows."+filterCol+" = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count relations: %w", err)
	}
	err := query.Order("follows.created_at DESC").
		Offset(common.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list relations: %w", err)
	}
	return users, total, nil
}
