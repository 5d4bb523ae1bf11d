// File: internal/feedback/model.go
package feedback

import (
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/user"

	"github.com/google/uuid"
)

// IssueType classifies a feedback entry.
type IssueType string

const (
	IssueUsageError     IssueType = "usage_error"
	IssueFeatureRequest IssueType = "feature_request"
)

// Status is the admin triage state.
type Status string

const (
	StatusUnresolved Status = "unresolved"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// Feedback is a user-submitted issue or suggestion.
type Feedback struct {
	common.BaseModel
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	User        *user.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	IssueType   IssueType  `gorm:"type:varchar(30);not null;index"`
	Description string     `gorm:"type:text;not null"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'unresolved';index"`
	ResolvedAt  *time.Time
}

// TableName specifies the table name for the Feedback model.
func (Feedback) TableName() string {
	return "feedbacks"
}

// ListQuery filters feedback lists.
type ListQuery struct {
	IssueType IssueType `form:"issue_type" binding:"omitempty,oneof=usage_error feature_request"`
	Status    Status    `form:"status" binding:"omitempty,oneof=unresolved resolved rejected"`
	Page      int       `form:"-"`
	PageSize  int       `form:"-"`
}

// CreateFeedbackRequest is the payload for submitting feedback.
type CreateFeedbackRequest struct {
	IssueType   IssueType `json:"issue_type" binding:"required,oneof=usage_error feature_request"`
	Description string    `json:"description" binding:"required,max=2000"`
}

// UpdateFeedbackRequest edits the caller's own feedback.
type UpdateFeedbackRequest struct {
	IssueType   *IssueType `json:"issue_type,omitempty" binding:"omitempty,oneof=usage_error feature_request"`
	Description *string    `json:"description,omitempty" binding:"omitempty,max=2000"`
}

// UpdateStatusRequest is the admin triage payload.
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=unresolved resolved rejected"`
}

// FeedbackResponse defines the feedback data sent in API responses.
type FeedbackResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Username    string     `json:"username"`
	IssueType   IssueType  `json:"issue_type"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// ToFeedbackResponse converts a Feedback model to a FeedbackResponse.
func ToFeedbackResponse(f *Feedback) FeedbackResponse {
	resp := FeedbackResponse{
		ID:          f.ID,
		UserID:      f.UserID,
		IssueType:   f.IssueType,
		Description: f.Description,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		ResolvedAt:  f.ResolvedAt,
	}
	if f.User != nil {
		resp.Username = f.User.Username
	}
	return resp
}
