package captcha

import (
	"net/http"

	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for captcha handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new captcha handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the captcha routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/captcha")
	{
		group.GET("", h.generate)
		group.GET("/image/:key", h.image)
		group.POST("/verify", h.verify)
	}
}

func (h *Handler) generate(c *gin.Context) {
	challenge, err := h.service.Generate(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Captcha generated.", challenge)
}

func (h *Handler) image(c *gin.Context) {
	png, err := h.service.Image(c.Request.Context(), c.Param("key"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	if err := h.service.Verify(c.Request.Context(), req.Key, req.Value); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Captcha verified.", gin.H{"valid": true})
}
