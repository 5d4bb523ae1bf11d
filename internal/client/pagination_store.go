package client

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// DefaultArticlePageSize is the number of articles per list page.
const DefaultArticlePageSize = 4

type paginationState struct {
	CurrentPage int   `json:"current_page"`
	Total       int64 `json:"total"`
}

// PaginationStore remembers the article list position across runs.
type PaginationStore struct {
	mu       sync.Mutex
	storage  Storage
	logger   *zap.Logger
	current  int
	pageSize int
	total    int64
}

// NewPaginationStore restores the saved position, if any.
func NewPaginationStore(storage Storage, logger *zap.Logger) *PaginationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &PaginationStore{storage: storage, logger: logger, current: 1, pageSize: DefaultArticlePageSize}
	p.sync()
	return p
}

func (p *PaginationStore) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *PaginationStore) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

func (p *PaginationStore) Total() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// TotalPages is ceil(total / pageSize).
func (p *PaginationStore) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPagesLocked()
}

func (p *PaginationStore) totalPagesLocked() int {
	return int((p.total + int64(p.pageSize) - 1) / int64(p.pageSize))
}

// SetCurrentPage accepts any page >= 1 while the total is unknown, and only
// pages within range afterwards. It reports whether the page was taken.
func (p *PaginationStore) SetCurrentPage(page int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if page < 1 {
		return false
	}
	if pages := p.totalPagesLocked(); pages != 0 && page > pages {
		return false
	}
	p.current = page
	p.persistLocked()
	return true
}

// SetTotal records the item count and pulls the current page back into
// range when the list shrank.
func (p *PaginationStore) SetTotal(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total < 0 {
		total = 0
	}
	p.total = total
	p.clampLocked()
	p.persistLocked()
}

// SetPageSize changes the page size and keeps the current page in range.
func (p *PaginationStore) SetPageSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if size < 1 {
		return
	}
	p.pageSize = size
	p.clampLocked()
	p.persistLocked()
}

func (p *PaginationStore) clampLocked() {
	if pages := p.totalPagesLocked(); pages > 0 && p.current > pages {
		p.current = pages
	}
}

func (p *PaginationStore) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = 1
	p.total = 0
	p.persistLocked()
}

func (p *PaginationStore) persistLocked() {
	data, err := json.Marshal(paginationState{CurrentPage: p.current, Total: p.total})
	if err != nil {
		return
	}
	if err := p.storage.Set(KeyPagination, string(data)); err != nil {
		p.logger.Warn("Failed to persist pagination", zap.Error(err))
	}
}

func (p *PaginationStore) sync() {
	raw, ok := p.storage.Get(KeyPagination)
	if !ok {
		return
	}
	var st paginationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return
	}
	if st.CurrentPage >= 1 {
		p.current = st.CurrentPage
	}
	if st.Total > 0 {
		p.total = st.Total
	}
}
