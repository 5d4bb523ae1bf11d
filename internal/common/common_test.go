package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	e := ErrNotFound.WithDetails("article missing")
	assert.Equal(t, "article missing", e.Details)
	assert.Nil(t, ErrNotFound.Details)
	assert.True(t, errors.Is(e, ErrNotFound))
	assert.False(t, errors.Is(e, ErrConflict))
}

func TestIsAPIError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", ErrForbidden.WithDetails("nope"))
	apiErr, ok := IsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(9, 2, 4)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	empty := NewPagination(0, 1, 10)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-3&page_size=1000", nil)

	page, size := GetPaginationParams(c)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, MaxPageSize, size)
	assert.Equal(t, 8, Offset(3, 4))
}

func TestRespondWithError_APIError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithError(c, ErrConflict.WithDetails("taken"))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Code)
	assert.Equal(t, "taken", body.Details)
}

func TestGetTokenFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(AuthorizationHeader, "bearer abc.def")
	assert.Equal(t, "abc.def", GetTokenFromContext(c))

	c.Request.Header.Set(AuthorizationHeader, "Token abc")
	assert.Empty(t, GetTokenFromContext(c))
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hashed, "s3cret!"))
	assert.False(t, CheckPassword(hashed, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}
