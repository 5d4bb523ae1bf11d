package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationStore(t *testing.T) {
	storage := NewMemoryStorage()
	p := NewPaginationStore(storage, nil)
	assert.Equal(t, DefaultArticlePageSize, p.PageSize())
	assert.Equal(t, 1, p.CurrentPage())

	assert.True(t, p.SetCurrentPage(9), "any page is accepted before the total is known")
	assert.False(t, p.SetCurrentPage(0))

	p.SetTotal(10)
	assert.Equal(t, 3, p.TotalPages())
	assert.Equal(t, 3, p.CurrentPage(), "current page is pulled back into range")
	assert.False(t, p.SetCurrentPage(4))
	assert.True(t, p.SetCurrentPage(2))

	restored := NewPaginationStore(storage, nil)
	assert.Equal(t, 2, restored.CurrentPage())
	assert.EqualValues(t, 10, restored.Total())

	p.SetPageSize(0)
	assert.Equal(t, DefaultArticlePageSize, p.PageSize())
	p.SetPageSize(5)
	assert.Equal(t, 2, p.TotalPages())

	p.Reset()
	assert.Equal(t, 1, p.CurrentPage())
	assert.Zero(t, p.TotalPages())
}

func TestPaginationStore_PageSizeClampsCurrentPage(t *testing.T) {
	storage := NewMemoryStorage()
	p := NewPaginationStore(storage, nil)
	p.SetTotal(20)
	require.True(t, p.SetCurrentPage(5))

	p.SetPageSize(10)

	assert.Equal(t, 2, p.TotalPages())
	assert.Equal(t, 2, p.CurrentPage())
	assert.Equal(t, 2, NewPaginationStore(storage, nil).CurrentPage(), "the clamped page is persisted")
}
