package main

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bob = gin.H{"id": uuid.MustParse("6a1e3a52-23a4-4f8e-9d0a-2f6d8d8f4b10"), "username": "bob", "is_admin": false}

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
			"site_name": "Notebook",
			"features":  gin.H{"comments": true},
		}})
	})
	api.GET("/captcha", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
			"captcha_key":  "k1",
			"image_base64": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png")),
			"expires_at":   time.Now().Add(time.Minute),
		}})
	})
	api.POST("/auth/login", func(c *gin.Context) {
		var body struct {
			Username     string `json:"username"`
			Password     string `json:"password"`
			CaptchaKey   string `json:"captcha_key"`
			CaptchaValue string `json:"captcha_value"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.CaptchaKey != "k1" || body.CaptchaValue != "ab12" {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_CAPTCHA", "message": "Captcha is incorrect."})
			return
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
		access, err := tok.SignedString([]byte("test"))
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.SetCookie("refresh_token", "r1", 3600, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
			"access_token": access,
			"token_type":   "Bearer",
			"user":         bob,
		}})
	})
	api.GET("/user/info", func(c *gin.Context) {
		if !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": nil, "is_authenticated": false}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": bob, "is_authenticated": true}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// run executes blogctl against server with a session file in dir.
func run(t *testing.T, server, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	base := []string{
		"--server", server,
		"--session-file", filepath.Join(dir, "session.json"),
		"--no-color",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSession_EmptyStorageIsGuest(t *testing.T) {
	out, err := run(t, "http://127.0.0.1:1", t.TempDir(), "", "session")
	require.NoError(t, err)
	assert.Contains(t, out, "guest")
}

func TestVisit(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "http://127.0.0.1:1", dir, "", "visit", "/articles")
	require.NoError(t, err)
	assert.Contains(t, out, "allow /articles")

	out, err = run(t, "http://127.0.0.1:1", dir, "", "visit", "/netdisk", "--from", "/articles/42")
	require.NoError(t, err)
	assert.Contains(t, out, "/netdisk requires login")
	assert.Contains(t, out, "next: /articles/42")
}

func TestConfig_PrintsSortedSettings(t *testing.T) {
	srv := newFakeServer(t)
	out, err := run(t, srv.URL, t.TempDir(), "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Notebook")
	assert.Contains(t, out, `{"comments":true}`)
	assert.Less(t, strings.Index(out, "features"), strings.Index(out, "site_name"))
}

func TestLoginThenWhoami(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()

	out, err := run(t, srv.URL, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	out, err = run(t, srv.URL, dir, "ab12\n", "login", "-u", "bob", "-p", "pw",
		"--captcha-image", filepath.Join(dir, "captcha.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as bob")
	assert.FileExists(t, filepath.Join(dir, "captcha.png"))

	out, err = run(t, srv.URL, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "bob (user)")

	out, err = run(t, srv.URL, dir, "", "session")
	require.NoError(t, err)
	assert.Contains(t, out, "authenticated")
	assert.Contains(t, out, "token expires")
}

func TestLogin_WrongCaptcha(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()
	_, err := run(t, srv.URL, dir, "nope\n", "login", "-u", "bob", "-p", "pw",
		"--captcha-image", filepath.Join(dir, "captcha.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CAPTCHA")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.5 KiB", humanBytes(1536))
	assert.Equal(t, "2.0 MiB", humanBytes(2<<20))
}
