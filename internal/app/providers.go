package app

import (
	"context"
	"fmt"

	"blog_backend/internal/article"
	"blog_backend/internal/auth"
	"blog_backend/internal/captcha"
	"blog_backend/internal/comment"
	"blog_backend/internal/config"
	"blog_backend/internal/jobs"
	"blog_backend/internal/middleware"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/notification"
	"blog_backend/internal/platform/attempts"
	"blog_backend/internal/platform/database"
	"blog_backend/internal/platform/elasticsearch"
	"blog_backend/internal/siteconfig"
	"blog_backend/internal/user"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// ProvideDatabase opens the database, migrates it when DB_AUTO_MIGRATE is
// set and returns a cleanup that closes it.
func ProvideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db, logger, Models()...); err != nil {
			database.CloseGORMDB(db, logger)
			return nil, nil, err
		}
	}
	return db, func() { database.CloseGORMDB(db, logger) }, nil
}

// ProvideLoginLimiter is shared by login and password recovery so both
// count towards the same lock.
func ProvideLoginLimiter(cfg *config.Config) *attempts.Limiter {
	return attempts.New(cfg.LoginMaxAttempts, cfg.LoginLockDuration, cfg.LoginLockDuration)
}

// ProvideBlocklist sizes the revocation cache for the access-token lifetime.
func ProvideBlocklist(cfg *config.Config) *auth.InMemoryBlocklistService {
	bl := auth.DefaultBlocklistConfig()
	if cfg.JWTAccessTokenExpiryMinutes > bl.DefaultExpiration {
		bl.DefaultExpiration = cfg.JWTAccessTokenExpiryMinutes
	}
	return auth.NewInMemoryBlocklistService(bl)
}

// ProvideRateLimiter builds the per-IP limiter for the auth routes. The
// cleanup stops its eviction loop.
func ProvideRateLimiter(cfg *config.Config) (*middleware.RateLimiter, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	return middleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst), cancel
}

// ProvideSearchIndex connects to Elasticsearch when configured and makes sure
// the articles index exists. Without a URL article search stays on SQL.
func ProvideSearchIndex(client *elasticsearch.ESClientWrapper, logger *zap.Logger) article.SearchIndex {
	if client == nil {
		return nil
	}
	if err := elasticsearch.CreateArticlesIndexIfNotExists(context.Background(), client, logger); err != nil {
		logger.Error("Failed to create Elasticsearch articles index; falling back to SQL search", zap.Error(err))
		return nil
	}
	return article.NewSearchIndex(client, logger)
}

// ProvideNetdiskService opens the storage root and builds the service.
func ProvideNetdiskService(cfg *config.Config, users user.Repository, site *siteconfig.Store, logger *zap.Logger) (netdisk.Service, error) {
	storage, err := netdisk.NewStorage(cfg.NetdiskRoot, logger.Named("netdisk"))
	if err != nil {
		return nil, fmt.Errorf("network disk: %w", err)
	}
	return netdisk.NewService(storage, users, site, cfg.NetdiskMaxUploadMB<<20, logger.Named("netdisk")), nil
}

// ProvideCommentService gives comments their own captcha failure limiter.
func ProvideCommentService(
	cfg *config.Config,
	db *gorm.DB,
	articles article.Service,
	captchas captcha.Service,
	notifications notification.Service,
	logger *zap.Logger,
) comment.Service {
	limiter := attempts.New(cfg.CommentCaptchaMaxFailures, cfg.CommentCaptchaLock, cfg.CommentCaptchaLock)
	return comment.NewService(comment.NewGORMRepository(db), articles, captchas, notifications, limiter, logger.Named("comment"))
}

// ProvideScheduler wires the maintenance jobs to their services.
func ProvideScheduler(
	cfg *config.Config,
	sessions *auth.SessionService,
	captchas captcha.Service,
	disk netdisk.Service,
	logger *zap.Logger,
) *jobs.Scheduler {
	return jobs.NewScheduler(cfg, sessions, captchas, disk, logger)
}
