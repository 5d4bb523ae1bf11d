package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testUser = UserInfo{ID: uuid.MustParse("0b0c6a43-5f0e-4a51-9b43-8f3f7c1f2e11"), Username: "alice"}

func signToken(t testing.TB, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    testUser.ID.String(),
		"token_type": "access",
		"exp":        exp.Unix(),
		"jti":        uuid.NewString(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// fakeAPI is a minimal stand-in for the blog API's session endpoints.
type fakeAPI struct {
	t      testing.TB
	server *httptest.Server

	mu            sync.Mutex
	validAccess   map[string]bool
	validRefresh  map[string]bool
	admin         bool
	rejectAll     bool
	logoutFails   bool
	configFails   int
	refreshHold   func()
	unauthorized  int32
	refreshCalls  int32
	userInfoCalls int32
	configCalls   int32
}

func newFakeAPI(t testing.TB) *fakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeAPI{t: t, validAccess: map[string]bool{}, validRefresh: map[string]bool{}}

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/login", f.login)
	api.POST("/auth/refresh", f.refresh)
	api.POST("/auth/logout", f.logout)
	api.GET("/user/info", f.userInfo)
	api.GET("/config", f.config)

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) URL() string { return f.server.URL }

func (f *fakeAPI) issue(c *gin.Context, withCookie bool) {
	access := signToken(f.t, time.Now().Add(time.Hour))
	f.mu.Lock()
	f.validAccess[access] = true
	admin := f.admin
	f.mu.Unlock()
	if withCookie {
		refresh := uuid.NewString()
		f.mu.Lock()
		f.validRefresh[refresh] = true
		f.mu.Unlock()
		c.SetCookie(DefaultRefreshCookieName, refresh, 3600, "/", "", false, true)
	}
	u := testUser
	u.IsAdmin = admin
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_at":   time.Now().Add(time.Hour),
		"user":         u,
	}})
}

func (f *fakeAPI) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password != "secret" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_CREDENTIALS", "message": "Invalid username or password."})
		return
	}
	f.issue(c, true)
}

func (f *fakeAPI) refresh(c *gin.Context) {
	atomic.AddInt32(&f.refreshCalls, 1)
	f.mu.Lock()
	hold := f.refreshHold
	f.mu.Unlock()
	if hold != nil {
		hold()
	}
	cookie, err := c.Cookie(DefaultRefreshCookieName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "MISSING_REFRESH_TOKEN", "message": "Refresh token is missing."})
		return
	}
	f.mu.Lock()
	ok := f.validRefresh[cookie]
	f.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "REFRESH_TOKEN_INVALID", "message": "Refresh token is not recognised."})
		return
	}
	f.issue(c, false)
}

func (f *fakeAPI) logout(c *gin.Context) {
	c.SetCookie(DefaultRefreshCookieName, "", -1, "/", "", false, true)
	f.mu.Lock()
	fails := f.logoutFails
	f.mu.Unlock()
	if fails {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_SERVER_ERROR", "message": "boom"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Logged out successfully."})
}

func (f *fakeAPI) userInfo(c *gin.Context) {
	atomic.AddInt32(&f.userInfoCalls, 1)
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	f.mu.Lock()
	rejectAll := f.rejectAll
	ok := f.validAccess[token] && !rejectAll
	f.mu.Unlock()
	if token == "" && !rejectAll {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": nil, "is_authenticated": false}})
		return
	}
	if !ok {
		atomic.AddInt32(&f.unauthorized, 1)
		c.JSON(http.StatusUnauthorized, gin.H{"code": "TOKEN_EXPIRED", "message": "Token has expired."})
		return
	}
	u := testUser
	f.mu.Lock()
	u.IsAdmin = f.admin
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u, "is_authenticated": true}})
}

func (f *fakeAPI) config(c *gin.Context) {
	n := atomic.AddInt32(&f.configCalls, 1)
	f.mu.Lock()
	fails := f.configFails
	f.mu.Unlock()
	if int(n) <= fails {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "SERVICE_UNAVAILABLE", "message": "try later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"blog_name": "Field Notes", "author": "alice"}})
}

// set changes the fake's behaviour switches under its lock.
func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// expireAccessTokens invalidates every issued access token.
func (f *fakeAPI) expireAccessTokens() {
	f.mu.Lock()
	f.validAccess = map[string]bool{}
	f.mu.Unlock()
}

// revokeRefreshTokens invalidates every issued refresh cookie.
func (f *fakeAPI) revokeRefreshTokens() {
	f.mu.Lock()
	f.validRefresh = map[string]bool{}
	f.mu.Unlock()
}

func newTestClient(t testing.TB, f *fakeAPI, storage Storage) *Client {
	t.Helper()
	c, err := New(f.URL(), storage)
	require.NoError(t, err)
	return c
}

func loginTestClient(t testing.TB, c *Client) {
	t.Helper()
	_, err := c.Login(context.Background(), LoginRequest{Username: "alice", Password: "secret", CaptchaKey: "k", CaptchaValue: "v"})
	require.NoError(t, err)
}

// dropRefresh fails every refresh call at the transport level, as if the
// server could not be reached, and passes other requests through.
type dropRefresh struct{}

func (dropRefresh) RoundTrip(r *http.Request) (*http.Response, error) {
	if strings.HasSuffix(r.URL.Path, refreshPath) {
		return nil, errors.New("connection reset by peer")
	}
	return http.DefaultTransport.RoundTrip(r)
}

func newUnreachableRefreshClient(t testing.TB, f *fakeAPI, storage Storage) *Client {
	t.Helper()
	c, err := New(f.URL(), storage, WithHTTPClient(&http.Client{Transport: dropRefresh{}, Timeout: 5 * time.Second}))
	require.NoError(t, err)
	return c
}
