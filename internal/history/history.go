// Package history serves the site changelog.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is one changelog item.
type Entry struct {
	common.BaseModel
	UpdateContent string    `gorm:"type:text;not null" json:"update_content"`
	UpdateTime    time.Time `gorm:"not null;index" json:"update_time"`
}

// TableName specifies the table name for the Entry model.
func (Entry) TableName() string {
	return "update_history"
}

// EntryRequest is the admin payload for creating or editing an entry.
type EntryRequest struct {
	UpdateContent string     `json:"update_content" binding:"required"`
	UpdateTime    *time.Time `json:"update_time,omitempty"`
}

// Repository defines the changelog data operations.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, pageSize int) ([]Entry, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM changelog repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, e *Entry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var e Entry
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("History entry not found.")
		}
		return nil, fmt.Errorf("failed to find history entry: %w", err)
	}
	return &e, nil
}

func (r *gormRepository) Update(ctx context.Context, e *Entry) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Entry{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete history entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("History entry not found.")
	}
	return nil
}

// List returns entries newest first.
func (r *gormRepository) List(ctx context.Context, page, pageSize int) ([]Entry, int64, error) {
	var entries []Entry
	var total int64
	query := r.db.WithContext(ctx).Model(&Entry{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}
	err := query.Order("update_time DESC").
		Offset(common.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	return entries, total, nil
}

// Handler serves the changelog. It has no service layer; the rules are the
// repository's.
type Handler struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a new changelog handler.
func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// RegisterRoutes sets up the public list and the admin CRUD.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	router.GET("/history", h.list)

	admin := router.Group("/admin/history")
	admin.Use(authMW, adminMW)
	{
		admin.GET("", h.list)
		admin.POST("", h.create)
		admin.GET("/:id", h.get)
		admin.PUT("/:id", h.update)
		admin.DELETE("/:id", h.delete)
	}
}

func (h *Handler) list(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	entries, total, err := h.repo.List(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "History retrieved successfully.", entries, common.NewPagination(total, page, pageSize))
}

func (h *Handler) get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	e, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "History entry retrieved successfully.", e)
}

func (h *Handler) bind(c *gin.Context) (*EntryRequest, bool) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return nil, false
	}
	req.UpdateContent = strings.TrimSpace(req.UpdateContent)
	if req.UpdateContent == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Update content cannot be empty."))
		return nil, false
	}
	return &req, true
}

func (h *Handler) create(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	e := &Entry{UpdateContent: req.UpdateContent, UpdateTime: h.now()}
	if req.UpdateTime != nil {
		e.UpdateTime = *req.UpdateTime
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.logger.Info("History entry created", zap.String("id", e.ID.String()))
	common.RespondCreated(c, "History entry created successfully.", e)
}

func (h *Handler) update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}
	e, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	e.UpdateContent = req.UpdateContent
	if req.UpdateTime != nil {
		e.UpdateTime = *req.UpdateTime
	}
	if err := h.repo.Update(c.Request.Context(), e); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "History entry updated successfully.", e)
}

func (h *Handler) delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
