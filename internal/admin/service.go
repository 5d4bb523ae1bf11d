package admin

import (
	"context"
	"strings"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArticleCounter is the part of the article repository the dashboard reads.
type ArticleCounter interface {
	Count(ctx context.Context, from, to *time.Time) (int64, error)
	Totals(ctx context.Context) (views, loves int64, err error)
}

// DiskAdmin is the administrative side of the network disk.
type DiskAdmin interface {
	AdminOverview(ctx context.Context) (*netdisk.AdminOverview, error)
	AdminDelete(ctx context.Context, path string) error
}

// SiteSettings reads and patches the site configuration document.
type SiteSettings interface {
	All() map[string]interface{}
	Update(patch map[string]interface{}) (map[string]interface{}, error)
}

// SessionRevoker drops the refresh tokens of a deleted user.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// Service defines the administration operations.
type Service interface {
	Statistics(ctx context.Context) (*Statistics, error)
	ListUsers(ctx context.Context, q UserListQuery) ([]user.User, *common.Pagination, error)
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*user.User, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
	ToggleAdmin(ctx context.Context, actorID, id uuid.UUID) (*ToggleAdminResult, error)
	NetworkFiles(ctx context.Context) (*netdisk.AdminOverview, error)
	DeleteNetworkFile(ctx context.Context, path string) error
	Config() map[string]interface{}
	UpdateConfig(patch map[string]interface{}) (map[string]interface{}, error)
}

type service struct {
	users    user.Repository
	articles ArticleCounter
	disk     DiskAdmin
	site     SiteSettings
	sessions SessionRevoker
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the admin service. sessions may be nil.
func NewService(
	users user.Repository,
	articles ArticleCounter,
	disk DiskAdmin,
	site SiteSettings,
	sessions SessionRevoker,
	logger *zap.Logger,
) Service {
	return &service{
		users:    users,
		articles: articles,
		disk:     disk,
		site:     site,
		sessions: sessions,
		logger:   logger.Named("admin"),
		now:      time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	today := startOfDay(s.now())
	stats := &Statistics{Trend: make([]TrendPoint, 0, TrendDays)}

	var err error
	if stats.Users.Total, err = s.users.Count(ctx, nil, nil); err != nil {
		return nil, s.internal("count users", err)
	}
	if stats.Users.TodayNew, err = s.users.Count(ctx, &today, nil); err != nil {
		return nil, s.internal("count new users", err)
	}
	if stats.Articles.Total, err = s.articles.Count(ctx, nil, nil); err != nil {
		return nil, s.internal("count articles", err)
	}
	if stats.Articles.TodayNew, err = s.articles.Count(ctx, &today, nil); err != nil {
		return nil, s.internal("count new articles", err)
	}
	if stats.Views, stats.Loves, err = s.articles.Totals(ctx); err != nil {
		return nil, s.internal("sum article counters", err)
	}

	for i := TrendDays - 1; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		to := from.AddDate(0, 0, 1)
		point := TrendPoint{Date: from.Format("2006-01-02")}
		if point.Users, err = s.users.Count(ctx, &from, &to); err != nil {
			return nil, s.internal("count users per day", err)
		}
		if point.Articles, err = s.articles.Count(ctx, &from, &to); err != nil {
			return nil, s.internal("count articles per day", err)
		}
		stats.Trend = append(stats.Trend, point)
	}

	// A broken disk must not hide the rest of the dashboard.
	if overview, err := s.disk.AdminOverview(ctx); err != nil {
		s.logger.Warn("Network disk overview unavailable", zap.Error(err))
	} else {
		stats.NetworkDisk = DiskSummary{FileCount: overview.FileCount, TotalSizeBytes: overview.TotalSizeBytes}
	}
	return stats, nil
}

func (s *service) internal(what string, err error) error {
	s.logger.Error("Statistics query failed", zap.String("query", what), zap.Error(err))
	return common.ErrInternalServer.WithDetails("Failed to compute statistics.")
}

func (s *service) ListUsers(ctx context.Context, q UserListQuery) ([]user.User, *common.Pagination, error) {
	if q.Page <= 0 {
		q.Page = common.DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = common.DefaultPageSize
	}
	users, total, err := s.users.List(ctx, q.Search, q.Page, q.PageSize)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, nil, err
	}
	return users, common.NewPagination(total, q.Page, q.PageSize), nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *service) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*user.User, error) {
	if req.empty() {
		return nil, common.ErrBadRequest.WithDetails("No fields to update.")
	}
	usr, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if len(name) < 3 {
			return nil, common.ErrBadRequest.WithDetails("Username must be at least 3 characters.")
		}
		usr.Username = name
	}
	if req.Avatar != nil {
		usr.Avatar = nilIfBlank(*req.Avatar)
	}
	if req.BgColor != nil {
		usr.BgColor = nilIfBlank(*req.BgColor)
	}
	if req.BgPattern != nil {
		usr.BgPattern = nilIfBlank(*req.BgPattern)
	}
	if req.CornerRadius != nil {
		usr.CornerRadius = nilIfBlank(*req.CornerRadius)
	}
	if err := s.users.Update(ctx, usr); err != nil {
		return nil, err
	}
	s.logger.Info("User updated by admin", zap.String("userID", id.String()))
	return usr, nil
}

func (s *service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return common.ErrBadRequest.WithDetails("You cannot delete your own account.")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeAll(ctx, id); err != nil {
			s.logger.Warn("Failed to revoke sessions of deleted user", zap.String("userID", id.String()), zap.Error(err))
		}
	}
	s.logger.Info("User deleted by admin", zap.String("userID", id.String()), zap.String("actorID", actorID.String()))
	return nil
}

func (s *service) ToggleAdmin(ctx context.Context, actorID, id uuid.UUID) (*ToggleAdminResult, error) {
	if actorID == id {
		return nil, common.ErrBadRequest.WithDetails("You cannot change your own admin status.")
	}
	usr, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	usr.IsAdmin = !usr.IsAdmin
	if err := s.users.Update(ctx, usr); err != nil {
		return nil, err
	}
	s.logger.Info("Admin flag toggled", zap.String("userID", id.String()), zap.Bool("isAdmin", usr.IsAdmin))
	return &ToggleAdminResult{UserID: usr.ID, IsAdmin: usr.IsAdmin}, nil
}

func (s *service) NetworkFiles(ctx context.Context) (*netdisk.AdminOverview, error) {
	return s.disk.AdminOverview(ctx)
}

func (s *service) DeleteNetworkFile(ctx context.Context, path string) error {
	return s.disk.AdminDelete(ctx, path)
}

func (s *service) Config() map[string]interface{} {
	return s.site.All()
}

func (s *service) UpdateConfig(patch map[string]interface{}) (map[string]interface{}, error) {
	if len(patch) == 0 {
		return nil, common.ErrBadRequest.WithDetails("Configuration patch is empty.")
	}
	updated, err := s.site.Update(patch)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to update site configuration", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Failed to save site configuration.")
	}
	s.logger.Info("Site configuration updated")
	return updated, nil
}

func nilIfBlank(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
