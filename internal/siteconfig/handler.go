package siteconfig

import (
	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler serves the public part of the site config.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/config", h.front)
}

func (h *Handler) front(c *gin.Context) {
	common.RespondOK(c, "Site config retrieved successfully.", h.store.Front())
}
