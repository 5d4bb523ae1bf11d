// File: internal/auth/handler.go
package auth

import (
	"net/http"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/config"
	"blog_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	sessions *SessionService
	cfg      *config.Config
	logger   *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(sessions *SessionService, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations.
// limitMW throttles login and refresh per client IP.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, optionalAuthMW, limitMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", limitMW, h.login)
		authGroup.POST("/refresh", limitMW, h.refresh)
		authGroup.POST("/logout", optionalAuthMW, h.logout)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		common.RespondBindError(c, err)
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	common.RespondOK(c, "Login successful.", result.Token)
}

func (h *Handler) refresh(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.RefreshCookieName)
	resp, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		h.logger.Debug("Token refresh failed", zap.Error(err))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Token refreshed successfully.", resp)
}

func (h *Handler) logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.RefreshCookieName)

	var claims *shared.Claims
	if v, ok := c.Get(common.UserClaimsKey); ok {
		claims, _ = v.(*shared.Claims)
	}

	err := h.sessions.Logout(c.Request.Context(), token, claims)
	h.clearRefreshCookie(c)
	if err != nil {
		h.logger.Error("Logout failed to revoke tokens", zap.Error(err))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Logged out successfully.", nil)
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt) / time.Second)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.RefreshCookieName, token, maxAge, "/", h.cfg.RefreshCookieDomain, h.cfg.RefreshCookieSecure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.RefreshCookieName, "", -1, "/", h.cfg.RefreshCookieDomain, h.cfg.RefreshCookieSecure, true)
}
