package netdisk

import (
	"path/filepath"

	"blog_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for network disk handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new network disk handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MkdirRequest is the payload for creating a directory.
type MkdirRequest struct {
	Path string `json:"path"`
	Name string `json:"name" binding:"required"`
}

// RenameRequest is the payload for renaming an entry.
type RenameRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

// PathRequest carries a single path in the body.
type PathRequest struct {
	Path string `json:"path" binding:"required"`
}

// RegisterRoutes sets up the network disk routes. Listing and downloads are
// open to guests.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	disk := router.Group("/netdisk")
	{
		disk.GET("/files", optionalAuthMW, h.list)
		disk.GET("/download/*path", h.download)
		disk.POST("/upload", authMW, h.upload)
		disk.DELETE("/files/*path", authMW, h.delete)
		disk.POST("/mkdir", authMW, h.mkdir)
		disk.POST("/rename", authMW, h.rename)
		disk.GET("/storage-info", authMW, h.storageInfo)
	}
}

func (h *Handler) list(c *gin.Context) {
	listing, err := h.service.List(c.Request.Context(), common.GetOptionalUserID(c), c.Query("path"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Files retrieved successfully.", listing)
}

func (h *Handler) download(c *gin.Context) {
	full, err := h.service.Download(c.Request.Context(), trimWildcard(c.Param("path")))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.FileAttachment(full, filepath.Base(full))
}

func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("No file was uploaded."))
		return
	}
	entry, err := h.service.Upload(c.Request.Context(), common.GetUserIDFromContext(c), c.PostForm("path"), file)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "File uploaded successfully.", gin.H{"file": entry})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), common.GetUserIDFromContext(c), trimWildcard(c.Param("path"))); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Deleted successfully.", nil)
}

func (h *Handler) mkdir(c *gin.Context) {
	var req MkdirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	entry, err := h.service.Mkdir(c.Request.Context(), common.GetUserIDFromContext(c), req.Path, req.Name)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Directory created successfully.", gin.H{"directory": entry})
}

func (h *Handler) rename(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBindError(c, err)
		return
	}
	entry, err := h.service.Rename(c.Request.Context(), common.GetUserIDFromContext(c), req.Path, req.NewName)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Renamed successfully.", entry)
}

func (h *Handler) storageInfo(c *gin.Context) {
	info, err := h.service.StorageInfo(c.Request.Context(), common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Storage info retrieved successfully.", info)
}

func trimWildcard(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}
