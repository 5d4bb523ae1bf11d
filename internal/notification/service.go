package notification

import (
	"context"
	"errors"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the notification business logic.
type Service interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, notifType NotificationType, message string, articleID *uuid.UUID) (*Notification, error)
	// Notify records an event for recipient unless the actor is the recipient.
	// Failures are logged and never returned.
	Notify(ctx context.Context, recipient, actor uuid.UUID, notifType NotificationType, message string, articleID uuid.UUID)
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) CreateNotification(ctx context.Context, userID uuid.UUID, notifType NotificationType, message string, articleID *uuid.UUID) (*Notification, error) {
	n := &Notification{
		UserID:           userID,
		Type:             notifType,
		Message:          message,
		RelatedArticleID: articleID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", zap.String("userID", userID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create notification.")
	}
	return n, nil
}

func (s *service) Notify(ctx context.Context, recipient, actor uuid.UUID, notifType NotificationType, message string, articleID uuid.UUID) {
	if recipient == uuid.Nil || recipient == actor {
		return
	}
	n := &Notification{
		UserID:           recipient,
		ActorID:          &actor,
		Type:             notifType,
		Message:          message,
		RelatedArticleID: &articleID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("Failed to record notification",
			zap.String("recipient", recipient.String()),
			zap.String("type", string(notifType)),
			zap.Error(err))
	}
}

func (s *service) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error) {
	notifications, pagination, err := s.repo.GetByUserID(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.String("userID", userID.String()), zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, pagination, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.String("userID", userID.String()), zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return n, nil
}

func (s *service) MarkNotificationAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	err := s.repo.MarkAsRead(ctx, notificationID, userID)
	if err == nil {
		return nil
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	s.logger.Error("Failed to mark notification read", zap.String("notificationID", notificationID.String()), zap.Error(err))
	return common.ErrInternalServer.WithDetails("Could not update notification.")
}

func (s *service) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications read", zap.String("userID", userID.String()), zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not update notifications.")
	}
	return n, nil
}
