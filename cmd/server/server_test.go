package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blog_backend/internal/captcha"
	"blog_backend/internal/client"
	"blog_backend/internal/config"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ServerSuite runs the fully wired server on SQLite and drives it with the
// session client.
type ServerSuite struct {
	suite.Suite
	cfg     *config.Config
	ts      *httptest.Server
	db      *gorm.DB
	cleanup func()
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	dir := s.T().TempDir()
	dsn := filepath.Join(dir, "blog.db") + "?_foreign_keys=on"
	s.cfg = &config.Config{
		GinMode:                     gin.TestMode,
		ServerHost:                  "127.0.0.1",
		ServerPort:                  "0",
		ServerTimeout:               5 * time.Second,
		CORSAllowedOrigins:          []string{"http://localhost:5173"},
		PublicBaseURL:               "http://localhost",
		DBDriver:                    "sqlite",
		DBSource:                    dsn,
		DBAutoMigrate:               true,
		LogLevel:                    "error",
		LogFormat:                   "console",
		JWTSecretKey:                "integration-secret",
		JWTIssuer:                   "blog_backend",
		JWTAccessTokenExpiryMinutes: time.Hour,
		JWTRefreshTokenExpiryDays:   30 * 24 * time.Hour,
		RefreshCookieName:           client.DefaultRefreshCookieName,
		LoginMaxAttempts:            5,
		LoginLockDuration:           time.Hour,
		CommentCaptchaMaxFailures:   5,
		CommentCaptchaLock:          5 * time.Minute,
		RateLimitRPS:                1000,
		RateLimitBurst:              1000,
		NetdiskRoot:                 filepath.Join(dir, "disk"),
		NetdiskMaxUploadMB:          5,
		SiteConfigPath:              filepath.Join(dir, "site_config.json"),
	}

	srv, cleanup, err := initializeServer(s.cfg)
	s.Require().NoError(err)
	s.cleanup = cleanup
	s.ts = httptest.NewServer(srv.Router())

	s.db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	s.Require().NoError(err)
}

func (s *ServerSuite) TearDownTest() {
	s.ts.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	s.cleanup()
}

func (s *ServerSuite) newClient() *client.Client {
	c, err := client.New(s.ts.URL, client.NewMemoryStorage())
	s.Require().NoError(err)
	return c
}

// login registers username and logs in, reading the captcha answer from the
// database.
func (s *ServerSuite) login(c *client.Client, username string) *client.TokenResponse {
	ctx := context.Background()
	_, err := c.Register(ctx, client.RegisterRequest{Username: username, Password: "secret123", Protect: "Pet?", Answer: "cat"})
	s.Require().NoError(err)

	key, answer := s.solveCaptcha(c)
	tok, err := c.Login(ctx, client.LoginRequest{Username: username, Password: "secret123", CaptchaKey: key, CaptchaValue: answer})
	s.Require().NoError(err)
	return tok
}

func (s *ServerSuite) solveCaptcha(c *client.Client) (key, answer string) {
	ch, err := c.Captcha(context.Background())
	s.Require().NoError(err)
	var rec captcha.Captcha
	s.Require().NoError(s.db.Where("captcha_key = ?", ch.Key).First(&rec).Error)
	return ch.Key, rec.Response
}

func (s *ServerSuite) TestHealth() {
	resp, err := http.Get(s.ts.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *ServerSuite) TestSessionLifecycle() {
	ctx := context.Background()
	c := s.newClient()

	tok := s.login(c, "alice")
	s.Equal("alice", tok.User.Username)
	s.Equal(client.StateAuthenticated, c.Auth().State())

	u, err := c.FetchUserInfo(ctx)
	s.Require().NoError(err)
	s.Equal("alice", u.Username)

	// A rejected access token is refreshed through the cookie and retried.
	s.Require().NoError(c.Storage().Set(client.KeyAccessToken, "not-a-token"))
	u, err = c.FetchUserInfo(ctx)
	s.Require().NoError(err)
	s.Equal("alice", u.Username)
	s.NotEqual("not-a-token", c.AccessToken())

	s.Require().NoError(c.Logout(ctx))
	s.Equal(client.StateGuest, c.Auth().State())

	_, err = c.Refresh(ctx)
	var apiErr *client.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("MISSING_REFRESH_TOKEN", apiErr.Code)
}

func (s *ServerSuite) TestRevokedRefreshExpiresSession() {
	ctx := context.Background()
	c := s.newClient()
	s.login(c, "bob")
	s.Require().NoError(s.db.Exec("DELETE FROM refresh_tokens").Error)
	s.Require().NoError(c.Storage().Set(client.KeyAccessToken, "not-a-token"))

	_, err := c.FetchUserInfo(ctx)

	s.ErrorIs(err, client.ErrTokenExpired)
	s.Equal(client.StateExpired, c.Auth().State())
	s.Equal("bob", c.Auth().User().Username)
}

func (s *ServerSuite) TestArticleCommentLike() {
	ctx := context.Background()
	c := s.newClient()
	s.login(c, "carol")
	s.Require().NoError(s.db.Model(&user.User{}).Where("username = ?", "carol").Update("is_admin", true).Error)

	resp, err := c.Do(ctx, &client.Request{
		Method: http.MethodPost,
		Path:   "/admin/articles",
		Body:   map[string]string{"title": "Hello World", "content": "First post."},
	})
	s.Require().NoError(err)
	var created client.Article
	s.Require().NoError(resp.Decode(&created))
	s.Equal("hello-world", created.Slug)

	articles, page, err := c.ListArticles(ctx, "", 1, 4)
	s.Require().NoError(err)
	s.Require().Len(articles, 1)
	s.EqualValues(1, page.TotalItems)

	key, answer := s.solveCaptcha(c)
	cm, err := c.PostComment(ctx, created.ID, "Nice one", key, answer)
	s.Require().NoError(err)
	s.Equal("Nice one", cm.Content)

	like, err := c.ToggleLike(ctx, created.ID)
	s.Require().NoError(err)
	s.True(like.Liked)
	s.EqualValues(1, like.LoveCount)

	a, err := c.GetArticle(ctx, created.ID)
	s.Require().NoError(err)
	s.EqualValues(1, a.CommentCount)
	s.EqualValues(1, a.ViewCount)

	_, err = c.GetArticle(ctx, uuid.New())
	var apiErr *client.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
}

func (s *ServerSuite) TestNetworkDisk() {
	ctx := context.Background()
	c := s.newClient()
	tok := s.login(c, "dave")

	entry, err := c.Upload(ctx, "", "notes.txt", bytes.NewBufferString("hello disk"))
	s.Require().NoError(err)
	s.Equal(tok.User.ID.String()+"/notes.txt", entry.Path)

	listing, err := c.ListFiles(ctx, tok.User.ID.String())
	s.Require().NoError(err)
	s.Require().Len(listing.Files, 1)
	s.True(listing.CanWrite)

	data, err := c.Download(ctx, entry.Path)
	s.Require().NoError(err)
	s.Equal("hello disk", string(data))

	info, err := c.StorageInfo(ctx)
	s.Require().NoError(err)
	s.Equal(1, info.FileCount)

	s.Require().NoError(c.DeletePath(ctx, entry.Path))
	err = c.DeletePath(ctx, tok.User.ID.String())
	var apiErr *client.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadRequest, apiErr.StatusCode)
}

func TestRootCommand_HasMaintenanceCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"create-admin", "cleanup-files", "sync-articles", "seed"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPrintCleanupReport(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	printCleanupReport(cmd, &netdisk.CleanupReport{
		Cutoff:       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		DryRun:       true,
		DeletedFiles: []string{"u1/old.txt"},
		DeletedDirs:  []string{"u1/archive"},
		Errors:       []string{"u2/locked.bin: permission denied"},
	})

	text := out.String()
	assert.Contains(t, text, "ACTION")
	assert.Contains(t, text, "u1/old.txt")
	assert.Contains(t, text, "u1/archive")
	assert.Contains(t, text, "permission denied")
	assert.Equal(t, 3, strings.Count(text, "would delete "), "two entry rows and the summary")
	assert.Contains(t, text, "Cutoff 2026-01-02T00:00:00Z: would delete 1 files and 1 folders.")
}
