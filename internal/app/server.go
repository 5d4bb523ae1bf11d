// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blog_backend/internal/admin"
	"blog_backend/internal/article"
	"blog_backend/internal/auth"
	"blog_backend/internal/captcha"
	"blog_backend/internal/comment"
	"blog_backend/internal/config"
	"blog_backend/internal/feedback"
	"blog_backend/internal/history"
	"blog_backend/internal/jobs"
	"blog_backend/internal/middleware"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/notification"
	"blog_backend/internal/platform/elasticsearch"
	"blog_backend/internal/relation"
	"blog_backend/internal/siteconfig"
	"blog_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups every HTTP module mounted under /api/v1.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Captcha      *captcha.Handler
	SiteConfig   *siteconfig.Handler
	Article      *article.Handler
	Comment      *comment.Handler
	Relation     *relation.Handler
	Netdisk      *netdisk.Handler
	Feedback     *feedback.Handler
	History      *history.Handler
	Notification *notification.Handler
	Admin        *admin.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	scheduler  *jobs.Scheduler

	AppLogger *zap.Logger
	ESClient  *elasticsearch.ESClientWrapper
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	handlers *Handlers,
	authn *middleware.Authenticator,
	limiter *middleware.RateLimiter,
	scheduler *jobs.Scheduler,
	esClient *elasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics())
	}
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// The refresh cookie only travels cross-origin with credentials, which
	// rules out the "*" origin.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Blog API is healthy!"})
	})
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	RegisterRoutes(router.Group("/api/v1"), handlers, authn, limiter.Middleware())

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // large network-disk downloads
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		scheduler:  scheduler,
		AppLogger:  logger,
		ESClient:   esClient,
	}, nil
}

// RegisterRoutes mounts every module on v1.
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers, authn *middleware.Authenticator, limitMW gin.HandlerFunc) {
	authMW := authn.Required()
	optionalAuthMW := authn.Optional()
	adminMW := authn.AdminRequired()

	h.Auth.RegisterRoutes(v1, optionalAuthMW, limitMW)
	h.User.RegisterRoutes(v1, authMW, optionalAuthMW)
	h.Captcha.RegisterRoutes(v1)
	h.SiteConfig.RegisterRoutes(v1)
	h.Article.RegisterRoutes(v1, authMW, adminMW)
	h.Comment.RegisterRoutes(v1, authMW)
	h.Relation.RegisterRoutes(v1, authMW, optionalAuthMW)
	h.Netdisk.RegisterRoutes(v1, authMW, optionalAuthMW)
	h.Feedback.RegisterRoutes(v1, authMW, adminMW)
	h.History.RegisterRoutes(v1, authMW, adminMW)
	h.Notification.RegisterRoutes(v1, authMW)
	h.Admin.RegisterRoutes(v1, authMW, adminMW)
}

// Router exposes the engine for in-process tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.scheduler != nil {
		if err := s.scheduler.SetupAndStart(); err != nil {
			s.AppLogger.Error("Failed to setup and start job scheduler", zap.Error(err))
		}
	} else {
		s.AppLogger.Info("Job scheduler is not configured, skipping start.")
	}

	s.AppLogger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.AppLogger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.AppLogger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.AppLogger.Info("Attempting graceful server shutdown...")
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
