// File: internal/feedback/service.go
package feedback

import (
	"context"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for feedback business logic.
type Service interface {
	List(ctx context.Context, q ListQuery) ([]Feedback, *common.Pagination, error)
	Get(ctx context.Context, id uuid.UUID) (*Feedback, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateFeedbackRequest) (*Feedback, error)
	UpdateOwn(ctx context.Context, userID, id uuid.UUID, req UpdateFeedbackRequest) (*Feedback, error)
	DeleteOwn(ctx context.Context, userID, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Feedback, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new feedback service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger, now: time.Now}
}

func (s *service) List(ctx context.Context, q ListQuery) ([]Feedback, *common.Pagination, error) {
	if q.Page <= 0 {
		q.Page = common.DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = common.DefaultPageSize
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list feedback", zap.Error(err))
		return nil, nil, err
	}
	return items, common.NewPagination(total, q.Page, q.PageSize), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateFeedbackRequest) (*Feedback, error) {
	description := sanitize.Text(req.Description)
	if description == "" {
		return nil, common.ErrBadRequest.WithDetails("Description cannot be empty.")
	}
	f := &Feedback{UserID: userID, IssueType: req.IssueType, Description: description, Status: StatusUnresolved}
	if err := s.repo.Create(ctx, f); err != nil {
		s.logger.Error("Failed to create feedback", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Feedback submitted", zap.String("feedbackID", f.ID.String()), zap.String("type", string(f.IssueType)))
	return s.repo.FindByID(ctx, f.ID)
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (*Feedback, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, common.ErrForbidden.WithDetails("You can only change your own feedback.")
	}
	return f, nil
}

func (s *service) UpdateOwn(ctx context.Context, userID, id uuid.UUID, req UpdateFeedbackRequest) (*Feedback, error) {
	if req.IssueType == nil && req.Description == nil {
		return nil, common.ErrBadRequest.WithDetails("Nothing to update.")
	}
	f, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.IssueType != nil {
		f.IssueType = *req.IssueType
	}
	if req.Description != nil {
		description := sanitize.Text(*req.Description)
		if description == "" {
			return nil, common.ErrBadRequest.WithDetails("Description cannot be empty.")
		}
		f.Description = description
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) DeleteOwn(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// UpdateStatus stamps resolved_at when the status changes to a closed state
// and clears it when the entry is reopened.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Feedback, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case status == StatusUnresolved:
		f.ResolvedAt = nil
	case status != f.Status:
		now := s.now()
		f.ResolvedAt = &now
	}
	f.Status = status
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Info("Feedback status updated", zap.String("feedbackID", id.String()), zap.String("status", string(status)))
	return f, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
