// File: internal/comment/handler.go
package comment

import (
	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for comment handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new comment handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for comment operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/articles/:id/comments", h.listComments)
	router.POST("/articles/:id/comments", authMW, h.createComment)
	router.DELETE("/comments/:id", authMW, h.deleteComment)
}

func (h *Handler) listComments(c *gin.Context) {
	articleID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	page, pageSize := common.GetPaginationParams(c)
	comments, pagination, err := h.service.ListComments(c.Request.Context(), articleID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = ToCommentResponse(&comments[i])
	}
	common.RespondPaginated(c, "Comments retrieved successfully.", resp, pagination)
}

func (h *Handler) createComment(c *gin.Context) {
	articleID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create comment: Invalid request body", zap.Error(err))
		common.RespondBindError(c, err)
		return
	}
	created, err := h.service.CreateComment(c.Request.Context(), common.GetUserIDFromContext(c), articleID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Comment posted successfully.", ToCommentResponse(created))
}

func (h *Handler) deleteComment(c *gin.Context) {
	commentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteComment(c.Request.Context(), common.GetUserIDFromContext(c), commentID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
