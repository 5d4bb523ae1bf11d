// File: internal/user/handler.go
package user

import (
	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for account operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	router.POST("/register", h.register)
	router.POST("/forgot", h.forgot)
	router.PUT("/forgot", h.resetPassword)
	router.GET("/home", optionalAuthMW, h.home)
	router.GET("/users/:id", h.getUserByID)

	userGroup := router.Group("/user")
	{
		userGroup.GET("/info", optionalAuthMW, h.info)
		userGroup.PUT("/profile", authMW, h.updateProfile)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("User registration: Invalid request body", zap.Error(err))
		common.RespondBindError(c, err)
		return
	}
	usr, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User registered successfully.", ToPublicResponse(usr))
}

func (h *Handler) forgot(c *gin.Context) {
	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if req.Answer == "" {
		question, err := h.service.SecurityQuestion(ctx, req.Username)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		common.RespondOK(c, "User exists.", gin.H{"protect": question})
		return
	}
	if err := h.service.VerifyAnswer(ctx, req.Username, req.Answer); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Security answer verified.", gin.H{"verified": true})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Password updated successfully.", nil)
}

// info answers for guests too; is_authenticated tells the client which one it is.
func (h *Handler) info(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondOK(c, "Guest session.", gin.H{"user": nil, "is_authenticated": false})
		return
	}
	usr, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("Token refers to a missing user", zap.String("userID", userID.String()), zap.Error(err))
		common.RespondOK(c, "Guest session.", gin.H{"user": nil, "is_authenticated": false})
		return
	}
	common.RespondOK(c, "User info retrieved successfully.", gin.H{"user": ToUserResponse(usr), "is_authenticated": true})
}

func (h *Handler) home(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID != uuid.Nil {
		if usr, err := h.service.GetUserByID(c.Request.Context(), userID); err == nil {
			common.RespondOK(c, "Welcome back, "+usr.Username+".", gin.H{"user": ToUserResponse(usr), "is_authenticated": true})
			return
		}
	}
	common.RespondOK(c, "Welcome, guest. Log in to comment, like and use the network disk.", gin.H{"is_authenticated": false})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	userID := common.GetUserIDFromContext(c)
	usr, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", ToUserResponse(usr))
}

func (h *Handler) getUserByID(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	usr, err := h.service.GetUserByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", ToPublicResponse(usr))
}
