package auth

import (
	"context"
	"testing"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/attempts"
	"blog_backend/internal/platform/crypto"
	"blog_backend/internal/platform/database/dbtest"
	"blog_backend/internal/shared"
	"blog_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type MockUserAuthenticator struct {
	mock.Mock
}

func (m *MockUserAuthenticator) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	args := m.Called(ctx, username, password)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAuthenticator) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type SessionServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	users     *MockUserAuthenticator
	captcha   *MockCaptchaVerifier
	store     RefreshTokenRepository
	tokens    shared.TokenService
	blocklist *InMemoryBlocklistService
	svc       *SessionService
	alice     *user.User
}

func (s *SessionServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = new(MockUserAuthenticator)
	s.captcha = new(MockCaptchaVerifier)
	s.store = NewGORMRefreshTokenRepository(dbtest.New(s.T(), &RefreshToken{}))
	s.tokens = NewJWTService(testConfig(), nil, zap.NewNop())
	s.blocklist = NewInMemoryBlocklistService(DefaultBlocklistConfig())
	s.svc = NewSessionService(s.users, s.captcha, s.tokens, s.store, s.blocklist,
		attempts.New(5, time.Hour, time.Hour), zap.NewNop())
	s.alice = &user.User{BaseModel: common.BaseModel{ID: uuid.New()}, Username: "alice", IsAdmin: true}
	s.captcha.On("Verify", mock.Anything, "k", "good").Return(nil)
	s.captcha.On("Verify", mock.Anything, "k", "bad").Return(common.ErrBadRequest.WithDetails("captcha"))
}

func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}

func (s *SessionServiceTestSuite) login() *LoginResult {
	s.users.On("Authenticate", mock.Anything, "alice", "pw").Return(s.alice, nil)
	res, err := s.svc.Login(s.ctx, LoginRequest{Username: "alice", Password: "pw", CaptchaKey: "k", CaptchaValue: "good"})
	s.Require().NoError(err)
	return res
}

func (s *SessionServiceTestSuite) TestLogin_Success() {
	res := s.login()

	s.NotEmpty(res.Token.AccessToken)
	s.Equal("Bearer", res.Token.TokenType)
	s.Equal("alice", res.Token.User.Username)
	s.True(res.Token.User.IsAdmin)
	s.NotEmpty(res.RefreshToken)

	rec, err := s.store.FindByHash(s.ctx, crypto.HashToken(res.RefreshToken))
	s.Require().NoError(err)
	s.Equal(s.alice.ID, rec.UserID)
}

func (s *SessionServiceTestSuite) TestLogin_NewLoginReplacesOldRefreshToken() {
	first := s.login()
	second := s.login()

	_, err := s.store.FindByHash(s.ctx, crypto.HashToken(first.RefreshToken))
	s.ErrorIs(err, common.ErrNotFound)
	_, err = s.store.FindByHash(s.ctx, crypto.HashToken(second.RefreshToken))
	s.NoError(err)
}

func (s *SessionServiceTestSuite) TestLogin_CaptchaFailureStopsBeforeCredentials() {
	_, err := s.svc.Login(s.ctx, LoginRequest{Username: "alice", Password: "pw", CaptchaKey: "k", CaptchaValue: "bad"})
	s.ErrorIs(err, common.ErrBadRequest)
	s.users.AssertNotCalled(s.T(), "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SessionServiceTestSuite) TestLogin_LocksAfterFiveFailures() {
	s.users.On("Authenticate", mock.Anything, "alice", "wrong").Return(nil, common.ErrUnauthorized)
	req := LoginRequest{Username: "alice", Password: "wrong", CaptchaKey: "k", CaptchaValue: "good"}

	for i := 4; i >= 1; i-- {
		_, err := s.svc.Login(s.ctx, req)
		apiErr, ok := common.IsAPIError(err)
		s.Require().True(ok)
		s.Equal("INVALID_CREDENTIALS", apiErr.Code)
		s.Equal(map[string]int{"remaining_attempts": i}, apiErr.Details)
	}

	_, err := s.svc.Login(s.ctx, req)
	s.ErrorIs(err, common.ErrTooManyRequests)

	// Correct password is refused while locked and the captcha is not consumed.
	s.users.On("Authenticate", mock.Anything, "alice", "pw").Return(s.alice, nil)
	calls := len(s.captcha.Calls)
	_, err = s.svc.Login(s.ctx, LoginRequest{Username: "alice", Password: "pw", CaptchaKey: "k", CaptchaValue: "good"})
	s.ErrorIs(err, common.ErrTooManyRequests)
	s.Len(s.captcha.Calls, calls)
}

func (s *SessionServiceTestSuite) TestLogin_SuccessClearsFailures() {
	s.users.On("Authenticate", mock.Anything, "alice", "wrong").Return(nil, common.ErrUnauthorized)
	bad := LoginRequest{Username: "alice", Password: "wrong", CaptchaKey: "k", CaptchaValue: "good"}
	for i := 0; i < 4; i++ {
		_, _ = s.svc.Login(s.ctx, bad)
	}
	s.login()

	_, err := s.svc.Login(s.ctx, bad)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(map[string]int{"remaining_attempts": 4}, apiErr.Details)
}

func (s *SessionServiceTestSuite) TestRefresh_Success() {
	res := s.login()
	s.users.On("GetUserByID", mock.Anything, s.alice.ID).Return(s.alice, nil)

	resp, err := s.svc.Refresh(s.ctx, res.RefreshToken)
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.Equal(s.alice.ID, resp.User.ID)

	rec, err := s.store.FindByHash(s.ctx, crypto.HashToken(res.RefreshToken))
	s.Require().NoError(err)
	s.NotNil(rec.LastUsedAt)
}

func (s *SessionServiceTestSuite) TestRefresh_ErrorCodes() {
	_, err := s.svc.Refresh(s.ctx, "")
	s.ErrorIs(err, ErrMissingRefreshToken)

	_, err = s.svc.Refresh(s.ctx, "garbage")
	s.ErrorIs(err, ErrInvalidRefreshToken)

	access, _, err := s.tokens.GenerateAccessToken(s.alice)
	s.Require().NoError(err)
	_, err = s.svc.Refresh(s.ctx, access)
	s.ErrorIs(err, ErrInvalidTokenType)

	unknown, _, err := s.tokens.GenerateRefreshToken(s.alice)
	s.Require().NoError(err)
	_, err = s.svc.Refresh(s.ctx, unknown)
	s.ErrorIs(err, ErrRefreshTokenInvalid)
}

func (s *SessionServiceTestSuite) TestRefresh_ExpiredRecordIsDeleted() {
	res := s.login()
	s.svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err := s.svc.Refresh(s.ctx, res.RefreshToken)
	s.ErrorIs(err, ErrRefreshTokenExpired)

	_, err = s.store.FindByHash(s.ctx, crypto.HashToken(res.RefreshToken))
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *SessionServiceTestSuite) TestLogout_WithCookieAndBearer() {
	res := s.login()
	claims, err := s.tokens.ValidateToken(res.Token.AccessToken)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(s.ctx, res.RefreshToken, claims))

	_, err = s.store.FindByHash(s.ctx, crypto.HashToken(res.RefreshToken))
	s.ErrorIs(err, common.ErrNotFound)
	revoked, _ := s.blocklist.IsBlocklisted(s.ctx, claims.ID)
	s.True(revoked)
}

func (s *SessionServiceTestSuite) TestLogout_BearerOnlyDropsAllUserTokens() {
	res := s.login()
	claims, err := s.tokens.ValidateToken(res.Token.AccessToken)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(s.ctx, "", claims))
	_, err = s.store.FindByHash(s.ctx, crypto.HashToken(res.RefreshToken))
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *SessionServiceTestSuite) TestLogout_InvalidCookieStillSucceeds() {
	s.NoError(s.svc.Logout(s.ctx, "garbage", nil))
}

func (s *SessionServiceTestSuite) TestCleanupExpired() {
	s.Require().NoError(s.store.Store(s.ctx, uuid.New(), "old", time.Now().Add(-time.Minute)))
	s.Require().NoError(s.store.Store(s.ctx, uuid.New(), "fresh", time.Now().Add(time.Hour)))

	n, err := s.svc.CleanupExpired(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, n)
}

func TestLockedErrorMessage(t *testing.T) {
	err := lockedError(attempts.Status{Locked: true, RetryAfter: time.Hour})
	assert.Contains(t, err.Message, "60 minutes")
	require.Equal(t, map[string]int{"retry_after_seconds": 3600}, err.Details)
}
