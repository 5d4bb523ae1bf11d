package admin

import (
	"blog_backend/internal/common"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for the admin dashboard handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new admin handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts everything under /admin behind both middlewares.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	admin := router.Group("/admin")
	admin.Use(authMW, adminMW)
	{
		admin.GET("/statistics", h.statistics)

		admin.GET("/users", h.listUsers)
		admin.GET("/users/:id", h.getUser)
		admin.PUT("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)
		admin.POST("/users/:id/toggle-admin", h.toggleAdmin)

		admin.GET("/network-files", h.networkFiles)
		admin.DELETE("/network-files", h.deleteNetworkFile)

		admin.GET("/config", h.getConfig)
		admin.PUT("/config", h.updateConfig)
	}
}

func (h *Handler) statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Statistics retrieved successfully.", stats)
}

func (h *Handler) listUsers(c *gin.Context) {
	var q UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondBindError(c, err)
		return
	}
	q.Page, q.PageSize = common.GetPaginationParams(c)
	users, pagination, err := h.service.ListUsers(c.Request.Context(), q)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := make([]user.UserResponse, len(users))
	for i := range users {
		resp[i] = user.ToUserResponse(&users[i])
	}
	common.RespondPaginated(c, "Users retrieved successfully.", resp, pagination)
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	usr, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", user.ToUserResponse(usr))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	usr, err := h.service.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User updated successfully.", user.ToUserResponse(usr))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), common.GetUserIDFromContext(c), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User deleted successfully.", nil)
}

func (h *Handler) toggleAdmin(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	result, err := h.service.ToggleAdmin(c.Request.Context(), common.GetUserIDFromContext(c), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Admin status updated.", result)
}

func (h *Handler) networkFiles(c *gin.Context) {
	overview, err := h.service.NetworkFiles(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Network files retrieved successfully.", overview)
}

func (h *Handler) deleteNetworkFile(c *gin.Context) {
	var req netdisk.PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	if err := h.service.DeleteNetworkFile(c.Request.Context(), req.Path); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "File deleted successfully.", nil)
}

func (h *Handler) getConfig(c *gin.Context) {
	common.RespondOK(c, "Site config retrieved successfully.", h.service.Config())
}

func (h *Handler) updateConfig(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Request body must be a JSON object."))
		return
	}
	updated, err := h.service.UpdateConfig(patch)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Site config updated successfully.", updated)
}
