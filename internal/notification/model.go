package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	ArticleCommented NotificationType = "article_commented"
	ArticleLiked     NotificationType = "article_liked"
)

// Notification represents a user notification.
type Notification struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_user_status" json:"user_id"` // User who receives it
	ActorID          *uuid.UUID       `gorm:"type:uuid" json:"actor_id,omitempty"`
	Type             NotificationType `gorm:"type:varchar(100);not null" json:"type"`
	Message          string           `gorm:"type:text;not null" json:"message"`
	RelatedArticleID *uuid.UUID       `gorm:"type:uuid;index" json:"related_article_id,omitempty"`
	IsRead           bool             `gorm:"not null;default:false;index:idx_notification_user_status" json:"is_read"`
	CreatedAt        time.Time        `gorm:"not null;index:idx_notification_user_status" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns the ID; notifications are immutable apart from is_read.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
