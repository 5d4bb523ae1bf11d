package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/config"
	"blog_backend/internal/platform/database/dbtest"
	"blog_backend/internal/siteconfig"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSettings struct{ s siteconfig.CaptchaSettings }

func (f staticSettings) Captcha() siteconfig.CaptchaSettings { return f.s }

func newTestService(t *testing.T) (*service, Repository) {
	t.Helper()
	repo := NewGORMRepository(dbtest.New(t, &Captcha{}))
	settings := staticSettings{siteconfig.CaptchaSettings{Length: 4, Timeout: 5 * time.Minute, Width: 120, Height: 40}}
	svc := NewService(repo, settings, &config.Config{PublicBaseURL: "http://api.test/"}, zap.NewNop()).(*service)
	return svc, repo
}

func TestRender_ProducesPNGOfRequestedSize(t *testing.T) {
	data, err := Render("AB12", 120, 40, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestService_GenerateAndVerify(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/v1/captcha/image/"+ch.Key, ch.ImageURL)
	assert.True(t, strings.HasPrefix(ch.ImageBase64, "data:image/png;base64,"))

	rec, err := repo.Find(ctx, ch.Key)
	require.NoError(t, err)
	assert.Len(t, rec.Response, 4)
	for _, r := range rec.Response {
		assert.Contains(t, Alphabet, string(r))
	}

	assert.ErrorIs(t, svc.Verify(ctx, ch.Key, "zzzz"), ErrCaptchaInvalid)
	// a wrong guess does not consume the captcha
	require.NoError(t, svc.Verify(ctx, ch.Key, strings.ToLower(rec.Response)))
	// a right answer does
	assert.ErrorIs(t, svc.Verify(ctx, ch.Key, rec.Response), ErrCaptchaExpired)
}

func TestService_VerifyEdgeCases(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Verify(ctx, "", "x"), ErrCaptchaRequired)
	assert.ErrorIs(t, svc.Verify(ctx, "unknown", "x"), ErrCaptchaExpired)

	require.NoError(t, repo.Create(ctx, &Captcha{Key: "old", Response: "ABCD", ExpiresAt: time.Now().Add(-time.Second), CreatedAt: time.Now()}))
	assert.ErrorIs(t, svc.Verify(ctx, "old", "ABCD"), ErrCaptchaExpired)
	_, err := repo.Find(ctx, "old")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_CleanupExpired(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &Captcha{Key: "a", Response: "AAAA", ExpiresAt: time.Now().Add(-time.Minute), CreatedAt: time.Now()}))
	require.NoError(t, repo.Create(ctx, &Captcha{Key: "b", Response: "BBBB", ExpiresAt: time.Now().Add(time.Minute), CreatedAt: time.Now()}))

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestHandler_ImageEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/captcha", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data Challenge `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/captcha/image/"+body.Data.Key, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/captcha/image/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
