package history

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blog_backend/internal/platform/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Code   string          `json:"code"`
}

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t, &Entry{})
	h := NewHandler(NewGORMRepository(db), zap.NewNop())
	router := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(router.Group("/api/v1"), pass, pass)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHistory_CRUDNewestFirst(t *testing.T) {
	router := setupRouter(t)
	older := time.Now().Add(-48 * time.Hour)

	w, _ := do(t, router, http.MethodPost, "/api/v1/admin/history", gin.H{"update_content": "v1 released", "update_time": older})
	require.Equal(t, http.StatusCreated, w.Code)
	w, env := do(t, router, http.MethodPost, "/api/v1/admin/history", gin.H{"update_content": "v2 released"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created Entry
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = do(t, router, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "v2 released", entries[0].UpdateContent)

	w, env = do(t, router, http.MethodPut, "/api/v1/admin/history/"+created.ID.String(), gin.H{"update_content": "v2.0 released"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated Entry
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "v2.0 released", updated.UpdateContent)

	w, _ = do(t, router, http.MethodDelete, "/api/v1/admin/history/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, env = do(t, router, http.MethodGet, "/api/v1/admin/history/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestHistory_RejectsBlankContent(t *testing.T) {
	router := setupRouter(t)
	w, _ := do(t, router, http.MethodPost, "/api/v1/admin/history", gin.H{"update_content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, router, http.MethodPut, "/api/v1/admin/history/not-a-uuid", gin.H{"update_content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
