// File: internal/feedback/handler.go
package feedback

import (
	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for feedback handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new feedback handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the public, user and admin feedback routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	group := router.Group("/feedback")
	{
		group.GET("", h.list)
		group.POST("", authMW, h.create)
		group.PUT("/:id", authMW, h.updateOwn)
		group.DELETE("/:id", authMW, h.deleteOwn)
	}

	admin := router.Group("/admin/feedback")
	admin.Use(authMW, adminMW)
	{
		admin.GET("", h.list)
		admin.GET("/:id", h.get)
		admin.PUT("/:id/status", h.updateStatus)
		admin.DELETE("/:id", h.delete)
	}
}

func respondList(c *gin.Context, items []Feedback, pagination *common.Pagination) {
	resp := make([]FeedbackResponse, len(items))
	for i := range items {
		resp[i] = ToFeedbackResponse(&items[i])
	}
	common.RespondPaginated(c, "Feedback retrieved successfully.", resp, pagination)
}

func (h *Handler) list(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondBindError(c, err)
		return
	}
	q.Page, q.PageSize = common.GetPaginationParams(c)
	items, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	respondList(c, items, pagination)
}

func (h *Handler) get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	f, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Feedback retrieved successfully.", ToFeedbackResponse(f))
}

func (h *Handler) create(c *gin.Context) {
	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	f, err := h.service.Create(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Feedback submitted successfully.", ToFeedbackResponse(f))
}

func (h *Handler) updateOwn(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	f, err := h.service.UpdateOwn(c.Request.Context(), common.GetUserIDFromContext(c), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Feedback updated successfully.", ToFeedbackResponse(f))
}

func (h *Handler) deleteOwn(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteOwn(c.Request.Context(), common.GetUserIDFromContext(c), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	f, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Feedback status updated successfully.", ToFeedbackResponse(f))
}

func (h *Handler) delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
