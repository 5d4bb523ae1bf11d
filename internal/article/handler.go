// File: internal/article/handler.go
package article

import (
	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for article handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new article handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the public article routes and the admin CRUD.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	articleGroup := router.Group("/articles")
	{
		articleGroup.GET("", h.listArticles)
		articleGroup.GET("/:id", h.getArticle)
	}

	adminGroup := router.Group("/admin/articles")
	adminGroup.Use(authMW, adminMW)
	{
		adminGroup.GET("", h.listArticles)
		adminGroup.POST("", h.createArticle)
		adminGroup.GET("/:id", h.adminGetArticle)
		adminGroup.PUT("/:id", h.updateArticle)
		adminGroup.DELETE("/:id", h.deleteArticle)
	}
}

func (h *Handler) listArticles(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid query parameters: "+err.Error()))
		return
	}
	q.Page, q.PageSize = common.GetPaginationParams(c)

	articles, pagination, err := h.service.ListArticles(c.Request.Context(), q)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := make([]ArticleResponse, len(articles))
	for i := range articles {
		resp[i] = ToArticleResponse(&articles[i], false)
	}
	common.RespondPaginated(c, "Articles retrieved successfully.", resp, pagination)
}

func (h *Handler) getArticle(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	a, err := h.service.ViewArticle(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Article retrieved successfully.", ToArticleResponse(a, true))
}

func (h *Handler) adminGetArticle(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	a, err := h.service.GetArticle(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Article retrieved successfully.", ToArticleResponse(a, true))
}

func (h *Handler) createArticle(c *gin.Context) {
	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create article: Invalid request body", zap.Error(err))
		common.RespondBindError(c, err)
		return
	}
	a, err := h.service.CreateArticle(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Article created successfully.", ToArticleResponse(a, true))
}

func (h *Handler) updateArticle(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	a, err := h.service.UpdateArticle(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Article updated successfully.", ToArticleResponse(a, true))
}

func (h *Handler) deleteArticle(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteArticle(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
