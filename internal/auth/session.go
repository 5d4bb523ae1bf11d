package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/attempts"
	"blog_backend/internal/platform/crypto"
	"blog_backend/internal/platform/metrics"
	"blog_backend/internal/shared"
	"blog_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService implements login, refresh and logout on top of the token
// service and the refresh-token store.
type SessionService struct {
	users     UserAuthenticator
	captcha   CaptchaVerifier
	tokens    shared.TokenService
	store     RefreshTokenRepository
	blocklist TokenBlocklistService
	limiter   *attempts.Limiter
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService wires the session flows.
func NewSessionService(
	users UserAuthenticator,
	captcha CaptchaVerifier,
	tokens shared.TokenService,
	store RefreshTokenRepository,
	blocklist TokenBlocklistService,
	limiter *attempts.Limiter,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		users:     users,
		captcha:   captcha,
		tokens:    tokens,
		store:     store,
		blocklist: blocklist,
		limiter:   limiter,
		logger:    logger,
		now:       time.Now,
	}
}

// Login checks the lock, the captcha and the credentials, in that order.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	key := strings.TrimSpace(req.Username)

	if st := s.limiter.Check(key); st.Locked {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, lockedError(st)
	}

	if err := s.captcha.Verify(ctx, req.CaptchaKey, req.CaptchaValue); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("captcha_failed").Inc()
		return nil, err
	}

	usr, err := s.users.Authenticate(ctx, key, req.Password)
	if err != nil {
		if !errors.Is(err, common.ErrUnauthorized) {
			return nil, err
		}
		st := s.limiter.Fail(key)
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.logger.Info("Login failed", zap.String("username", key), zap.Int("remaining", st.Remaining))
		if st.Locked {
			return nil, lockedError(st)
		}
		return nil, ErrInvalidCredentials.WithDetails(map[string]int{"remaining_attempts": st.Remaining})
	}
	s.limiter.Reset(key)

	result, err := s.issue(ctx, usr)
	if err != nil {
		return nil, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("User logged in", zap.String("userID", usr.ID.String()), zap.String("username", usr.Username))
	return result, nil
}

func (s *SessionService) issue(ctx context.Context, usr *user.User) (*LoginResult, error) {
	accessToken, accessExp, err := s.tokens.GenerateAccessToken(usr)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, refreshExp, err := s.tokens.GenerateRefreshToken(usr)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.store.Store(ctx, usr.ID, crypto.HashToken(refreshToken), refreshExp); err != nil {
		s.logger.Error("Failed to persist refresh token", zap.String("userID", usr.ID.String()), zap.Error(err))
		return nil, err
	}
	return &LoginResult{
		Token: shared.TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresAt:   accessExp,
			User:        user.ToShared(usr),
		},
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*shared.TokenResponse, error) {
	resp, err := s.refresh(ctx, refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return resp, nil
}

func (s *SessionService) refresh(ctx context.Context, refreshToken string) (*shared.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, shared.ErrWrongTokenType) {
			return nil, ErrInvalidTokenType
		}
		s.logger.Debug("Refresh token rejected", zap.Error(err))
		return nil, ErrInvalidRefreshToken
	}

	hash := crypto.HashToken(refreshToken)
	rec, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if rec.UserID != claims.UserID {
		return nil, ErrRefreshTokenInvalid
	}
	now := s.now()
	if !rec.ExpiresAt.After(now) {
		if _, err := s.store.DeleteByHash(ctx, hash); err != nil {
			s.logger.Warn("Failed to delete expired refresh token", zap.Error(err))
		}
		return nil, ErrRefreshTokenExpired
	}
	if err := s.store.Touch(ctx, rec.ID, now); err != nil {
		s.logger.Warn("Failed to update refresh token last use", zap.Error(err))
	}

	usr, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, err
	}
	accessToken, accessExp, err := s.tokens.GenerateAccessToken(usr)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &shared.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   accessExp,
		User:        user.ToShared(usr),
	}, nil
}

// Logout revokes server-side state. It never fails because of a bad token:
// whatever can be revoked is revoked.
func (s *SessionService) Logout(ctx context.Context, refreshToken string, accessClaims *shared.Claims) error {
	switch {
	case refreshToken != "":
		hash := crypto.HashToken(refreshToken)
		if claims, err := s.tokens.ParseRefreshToken(refreshToken); err == nil {
			if _, err := s.store.DeleteForUser(ctx, claims.UserID, hash); err != nil {
				return fmt.Errorf("delete refresh token: %w", err)
			}
		} else if _, err := s.store.DeleteByHash(ctx, hash); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	case accessClaims != nil:
		if _, err := s.store.DeleteAllForUser(ctx, accessClaims.UserID); err != nil {
			return fmt.Errorf("delete refresh tokens: %w", err)
		}
	}

	if accessClaims != nil && accessClaims.ExpiresAt != nil {
		if err := s.blocklist.AddToBlocklist(ctx, accessClaims.ID, accessClaims.ExpiresAt.Time); err != nil {
			s.logger.Warn("Failed to blocklist access token", zap.Error(err))
		}
	}
	return nil
}

// RevokeAll deletes every refresh token of a user.
func (s *SessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	n, err := s.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	s.logger.Info("Revoked refresh tokens", zap.String("userID", userID.String()), zap.Int64("count", n))
	return nil
}

// CleanupExpired removes expired refresh-token rows.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

func lockedError(st attempts.Status) *common.APIError {
	return common.NewTooManyRequestsError(
		fmt.Sprintf("Too many failed login attempts. Try again in %s.", attempts.FormatWait(st.RetryAfter)),
		st.RetryAfter,
	)
}
