// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"blog_backend/internal/admin"
	"blog_backend/internal/app"
	"blog_backend/internal/article"
	"blog_backend/internal/auth"
	"blog_backend/internal/captcha"
	"blog_backend/internal/comment"
	"blog_backend/internal/config"
	"blog_backend/internal/feedback"
	"blog_backend/internal/history"
	"blog_backend/internal/middleware"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/notification"
	"blog_backend/internal/platform/elasticsearch"
	"blog_backend/internal/platform/logger"
	"blog_backend/internal/relation"
	"blog_backend/internal/shared"
	"blog_backend/internal/siteconfig"
	"blog_backend/internal/user"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	logger.New,
	app.ProvideDatabase,
	siteconfig.NewStore,
	elasticsearch.NewClient,
	app.ProvideSearchIndex,
	app.ProvideRateLimiter,
)

var accountSet = wire.NewSet(
	user.NewGORMRepository,
	app.ProvideLoginLimiter,
	user.NewService,
	user.NewHandler,

	captcha.NewGORMRepository,
	captcha.NewService,
	captcha.NewHandler,
	wire.Bind(new(captcha.SettingsProvider), new(*siteconfig.Store)),

	auth.NewJWTService,
	auth.NewGORMRefreshTokenRepository,
	app.ProvideBlocklist,
	auth.NewSessionService,
	auth.NewHandler,
	wire.Bind(new(shared.TokenLifetimes), new(*siteconfig.Store)),
	wire.Bind(new(auth.TokenBlocklistService), new(*auth.InMemoryBlocklistService)),
	wire.Bind(new(auth.UserAuthenticator), new(user.Service)),
	wire.Bind(new(auth.CaptchaVerifier), new(captcha.Service)),

	middleware.NewAuthenticator,
	wire.Bind(new(shared.AdminChecker), new(user.Service)),
)

var contentSet = wire.NewSet(
	article.NewGORMRepository,
	article.NewService,
	article.NewHandler,

	notification.NewGORMRepository,
	notification.NewService,
	notification.NewHandler,

	app.ProvideCommentService,
	comment.NewHandler,

	relation.NewGORMRepository,
	relation.NewService,
	relation.NewHandler,
	wire.Bind(new(relation.ArticleFinder), new(article.Service)),
	wire.Bind(new(relation.UserFinder), new(user.Service)),
	wire.Bind(new(relation.Notifier), new(notification.Service)),

	feedback.NewGORMRepository,
	feedback.NewService,
	feedback.NewHandler,

	history.NewGORMRepository,
	history.NewHandler,

	siteconfig.NewHandler,
)

var diskSet = wire.NewSet(
	app.ProvideNetdiskService,
	netdisk.NewHandler,
)

var adminSet = wire.NewSet(
	admin.NewService,
	admin.NewHandler,
	wire.Bind(new(admin.ArticleCounter), new(article.Repository)),
	wire.Bind(new(admin.DiskAdmin), new(netdisk.Service)),
	wire.Bind(new(admin.SiteSettings), new(*siteconfig.Store)),
	wire.Bind(new(admin.SessionRevoker), new(*auth.SessionService)),
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		accountSet,
		contentSet,
		diskSet,
		adminSet,
		app.ProvideScheduler,
		wire.Struct(new(app.Handlers), "*"),
		app.NewServer,
	)
	return nil, nil, nil
}
