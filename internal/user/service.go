package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/attempts"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the user-facing account operations.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
	SecurityQuestion(ctx context.Context, username string) (string, error)
	VerifyAnswer(ctx context.Context, username, answer string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo    Repository
	limiter *attempts.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new user service. The limiter is the one shared with
// login so failed recovery answers count towards the same lock.
func NewService(repo Repository, limiter *attempts.Limiter, logger *zap.Logger) Service {
	return &service{repo: repo, limiter: limiter, logger: logger, now: time.Now}
}

// Register creates a new user.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, common.ErrConflict.WithDetails("Username is already taken.")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, err
	}
	answerHash, err := common.HashPassword(normalizeAnswer(req.Answer))
	if err != nil {
		s.logger.Error("Failed to hash security answer during registration", zap.Error(err))
		return nil, err
	}

	usr := &User{
		Username:       username,
		PasswordHash:   passwordHash,
		Protect:        strings.TrimSpace(req.Protect),
		AnswerHash:     answerHash,
		RegisteredTime: s.now(),
	}
	if err := s.repo.Create(ctx, usr); err != nil {
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		s.logger.Error("Failed to create user in repository", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered successfully", zap.String("userID", usr.ID.String()), zap.String("username", usr.Username))
	return usr, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords produce
// the same error.
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	usr, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized.WithDetails("Invalid username or password.")
		}
		s.logger.Error("Error finding user during login", zap.Error(err), zap.String("username", username))
		return nil, common.ErrInternalServer.WithDetails("Login failed due to an internal error.")
	}
	if !common.CheckPassword(usr.PasswordHash, password) {
		return nil, common.ErrUnauthorized.WithDetails("Invalid username or password.")
	}
	return usr, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	usr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Avatar != nil {
		usr.Avatar = emptyToNil(*req.Avatar)
	}
	if req.BgColor != nil {
		usr.BgColor = emptyToNil(*req.BgColor)
	}
	if req.BgPattern != nil {
		usr.BgPattern = emptyToNil(*req.BgPattern)
	}
	if req.CornerRadius != nil {
		usr.CornerRadius = emptyToNil(*req.CornerRadius)
	}
	if err := s.repo.Update(ctx, usr); err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err), zap.String("userID", id.String()))
		return nil, err
	}
	return usr, nil
}

// SecurityQuestion returns the question registered for username.
func (s *service) SecurityQuestion(ctx context.Context, username string) (string, error) {
	if err := s.checkLock(username); err != nil {
		return "", err
	}
	usr, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return usr.Protect, nil
}

// VerifyAnswer checks the security answer, recording failures in the login limiter.
func (s *service) VerifyAnswer(ctx context.Context, username, answer string) error {
	_, err := s.verify(ctx, username, answer)
	return err
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	usr, err := s.verify(ctx, req.Username, req.Answer)
	if err != nil {
		return err
	}
	hashed, err := common.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	usr.PasswordHash = hashed
	if err := s.repo.Update(ctx, usr); err != nil {
		s.logger.Error("Failed to store new password", zap.Error(err), zap.String("userID", usr.ID.String()))
		return err
	}
	s.limiter.Unlock(usr.Username)
	s.logger.Info("Password reset via security question", zap.String("userID", usr.ID.String()))
	return nil
}

// IsAdmin reads the admin flag from the database.
func (s *service) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	usr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return usr.IsAdmin, nil
}

func (s *service) verify(ctx context.Context, username, answer string) (*User, error) {
	if err := s.checkLock(username); err != nil {
		return nil, err
	}
	usr, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !common.CheckPassword(usr.AnswerHash, normalizeAnswer(answer)) {
		st := s.limiter.Fail(usr.Username)
		if st.Locked {
			return nil, common.NewTooManyRequestsError(
				fmt.Sprintf("Too many failed attempts. Try again in %s.", attempts.FormatWait(st.RetryAfter)), st.RetryAfter)
		}
		return nil, common.ErrBadRequest.WithMessage("Incorrect security answer.").
			WithDetails(map[string]int{"remaining_attempts": st.Remaining})
	}
	return usr, nil
}

func (s *service) checkLock(username string) error {
	st := s.limiter.Check(strings.TrimSpace(username))
	if st.Locked {
		return common.NewTooManyRequestsError(
			fmt.Sprintf("Too many failed attempts. Try again in %s.", attempts.FormatWait(st.RetryAfter)), st.RetryAfter)
	}
	return nil
}

func normalizeAnswer(answer string) string {
	return strings.TrimSpace(answer)
}

func emptyToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
