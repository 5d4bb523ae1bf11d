package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blog_backend/internal/auth"
	"blog_backend/internal/common"
	"blog_backend/internal/config"
	"blog_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAdminChecker struct {
	mock.Mock
}

func (m *MockAdminChecker) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type subject struct{ id uuid.UUID }

func (s subject) GetID() uuid.UUID    { return s.id }
func (s subject) GetUsername() string { return "alice" }

func setup(t *testing.T) (*Authenticator, shared.TokenService, *auth.InMemoryBlocklistService, *MockAdminChecker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecretKey:                "mw-secret",
		JWTIssuer:                   "blog_backend",
		JWTAccessTokenExpiryMinutes: time.Hour,
		JWTRefreshTokenExpiryDays:   time.Hour,
	}
	tokens := auth.NewJWTService(cfg, nil, zap.NewNop())
	bl := auth.NewInMemoryBlocklistService(auth.DefaultBlocklistConfig())
	admins := new(MockAdminChecker)
	return NewAuthenticator(tokens, bl, admins, zap.NewNop()), tokens, bl, admins
}

func serve(handlers []gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	r := gin.New()
	all := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  common.GetUserIDFromContext(c).String(),
			"username": common.GetUsernameFromContext(c),
		})
	})
	r.GET("/p", all...)
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if header != "" {
		req.Header.Set(common.AuthorizationHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body common.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestRequired_Codes(t *testing.T) {
	a, tokens, bl, _ := setup(t)
	id := uuid.New()
	access, _, err := tokens.GenerateAccessToken(subject{id})
	require.NoError(t, err)
	refresh, _, err := tokens.GenerateRefreshToken(subject{id})
	require.NoError(t, err)

	w := serve([]gin.HandlerFunc{a.Required()}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, w))

	w = serve([]gin.HandlerFunc{a.Required()}, "Bearer garbage")
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))

	w = serve([]gin.HandlerFunc{a.Required()}, "Bearer "+refresh)
	assert.Equal(t, "INVALID_TOKEN_TYPE", errorCode(t, w))

	w = serve([]gin.HandlerFunc{a.Required()}, "Bearer "+access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())

	claims, err := tokens.ValidateToken(access)
	require.NoError(t, err)
	require.NoError(t, bl.AddToBlocklist(context.Background(), claims.ID, claims.ExpiresAt.Time))
	w = serve([]gin.HandlerFunc{a.Required()}, "Bearer "+access)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, w))
}

func TestRequired_ExpiredToken(t *testing.T) {
	a, _, _, _ := setup(t)
	cfg := &config.Config{JWTSecretKey: "mw-secret", JWTIssuer: "blog_backend", JWTAccessTokenExpiryMinutes: -time.Minute}
	expired, _, err := auth.NewJWTService(cfg, nil, zap.NewNop()).GenerateAccessToken(subject{uuid.New()})
	require.NoError(t, err)

	w := serve([]gin.HandlerFunc{a.Required()}, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, w))
}

func TestOptional_GuestOnFailure(t *testing.T) {
	a, _, _, _ := setup(t)
	w := serve([]gin.HandlerFunc{a.Optional()}, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), uuid.Nil.String())
}

func TestAdminRequired(t *testing.T) {
	a, tokens, _, admins := setup(t)
	adminID, plainID := uuid.New(), uuid.New()
	admins.On("IsAdmin", mock.Anything, adminID).Return(true, nil)
	admins.On("IsAdmin", mock.Anything, plainID).Return(false, nil)

	adminToken, _, _ := tokens.GenerateAccessToken(subject{adminID})
	plainToken, _, _ := tokens.GenerateAccessToken(subject{plainID})

	w := serve([]gin.HandlerFunc{a.Required(), a.AdminRequired()}, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve([]gin.HandlerFunc{a.Required(), a.AdminRequired()}, "Bearer "+plainToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ADMIN_REQUIRED", errorCode(t, w))
}
