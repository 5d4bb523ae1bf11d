// File: internal/relation/handler.go
package relation

import (
	"context"

	"blog_backend/internal/common"
	"blog_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for like and follow handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new relation handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the like and follow routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	router.GET("/articles/:id/like", optionalAuthMW, h.likeStatus)
	router.POST("/articles/:id/like", authMW, h.toggleLike)

	router.GET("/users/:id/follow", optionalAuthMW, h.followStatus)
	router.POST("/users/:id/follow", authMW, h.follow)
	router.DELETE("/users/:id/follow", authMW, h.unfollow)
	router.GET("/users/:id/following", h.listFollowing)
	router.GET("/users/:id/followers", h.listFollowers)
}

func (h *Handler) toggleLike(c *gin.Context) {
	articleID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	status, err := h.service.ToggleLike(c.Request.Context(), common.GetUserIDFromContext(c), articleID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	message := "Like removed."
	if status.Liked {
		message = "Article liked."
	}
	common.RespondOK(c, message, status)
}

func (h *Handler) likeStatus(c *gin.Context) {
	articleID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	status, err := h.service.LikeStatus(c.Request.Context(), common.GetOptionalUserID(c), articleID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Like status retrieved successfully.", status)
}

func (h *Handler) follow(c *gin.Context) {
	h.changeFollow(c, h.service.Follow, "User followed.")
}

func (h *Handler) unfollow(c *gin.Context) {
	h.changeFollow(c, h.service.Unfollow, "User unfollowed.")
}

func (h *Handler) changeFollow(c *gin.Context, op func(ctx context.Context, followerID, followeeID uuid.UUID) (*FollowStatus, error), message string) {
	followeeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	status, err := op(c.Request.Context(), common.GetUserIDFromContext(c), followeeID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, message, status)
}

func (h *Handler) followStatus(c *gin.Context) {
	followeeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	status, err := h.service.FollowStatus(c.Request.Context(), common.GetOptionalUserID(c), followeeID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Follow status retrieved successfully.", status)
}

func (h *Handler) listFollowing(c *gin.Context) {
	h.listUsers(c, h.service.ListFollowing, "Following retrieved successfully.")
}

func (h *Handler) listFollowers(c *gin.Context) {
	h.listUsers(c, h.service.ListFollowers, "Followers retrieved successfully.")
}

func (h *Handler) listUsers(c *gin.Context, op func(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]user.User, *common.Pagination, error), message string) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	page, pageSize := common.GetPaginationParams(c)
	users, pagination, err := op(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := make([]user.UserResponse, len(users))
	for i := range users {
		resp[i] = user.ToPublicResponse(&users[i])
	}
	common.RespondPaginated(c, message, resp, pagination)
}
