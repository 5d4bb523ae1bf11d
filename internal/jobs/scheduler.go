// Package jobs runs the periodic maintenance tasks of the blog server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"blog_backend/internal/config"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/platform/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	jobSessionCleanup = "session_cleanup"
	jobNetdiskCleanup = "netdisk_cleanup"
)

// ExpiredCleaner deletes rows past their expiry. Refresh tokens and captchas
// both satisfy it.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// DiskCleaner removes stale network-disk entries.
type DiskCleaner interface {
	Cleanup(ctx context.Context, days int, dryRun bool) (*netdisk.CleanupReport, error)
}

// Scheduler owns the cron instance and the maintenance jobs.
type Scheduler struct {
	sessions ExpiredCleaner
	captchas ExpiredCleaner
	disk     DiskCleaner
	logger   *zap.Logger
	cfg      *config.Config
	cron     *cron.Cron
}

// NewScheduler creates a Scheduler. Nothing runs until SetupAndStart.
func NewScheduler(
	cfg *config.Config,
	sessions ExpiredCleaner,
	captchas ExpiredCleaner,
	disk DiskCleaner,
	logger *zap.Logger,
) *Scheduler {
	cl := NewCronLogger(logger.Named("cron"))
	return &Scheduler{
		sessions: sessions,
		captchas: captchas,
		disk:     disk,
		logger:   logger.Named("jobs"),
		cfg:      cfg,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}
}

// SetupAndStart schedules the jobs that have a schedule and starts cron.
// An empty schedule disables that job.
func (s *Scheduler) SetupAndStart() error {
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{jobSessionCleanup, s.cfg.SessionCleanupJobSchedule, func() { s.RunSessionCleanup(context.Background()) }},
		{jobNetdiskCleanup, s.cfg.NetdiskCleanupJobSchedule, func() { s.RunNetdiskCleanup(context.Background()) }},
	}
	for _, j := range jobs {
		if j.spec == "" {
			s.logger.Warn("Job schedule not defined, job will not run", zap.String("job", j.name))
			continue
		}
		id, err := s.cron.AddFunc(j.spec, j.run)
		if err != nil {
			s.logger.Error("Failed to schedule job", zap.String("job", j.name), zap.String("spec", j.spec), zap.Error(err))
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
		s.logger.Info("Job scheduled", zap.String("job", j.name), zap.String("spec", j.spec), zap.Int("entryID", int(id)))
	}
	s.cron.Start()
	return nil
}

// RunSessionCleanup deletes expired refresh tokens and captchas.
func (s *Scheduler) RunSessionCleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	status := "success"
	tokens, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		status = "error"
		s.logger.Error("Refresh token cleanup failed", zap.Error(err))
	}
	captchas, err := s.captchas.CleanupExpired(ctx)
	if err != nil {
		status = "error"
		s.logger.Error("Captcha cleanup failed", zap.Error(err))
	}
	metrics.JobRunsTotal.WithLabelValues(jobSessionCleanup, status).Inc()
	if tokens > 0 || captchas > 0 {
		s.logger.Info("Session cleanup completed", zap.Int64("refresh_tokens", tokens), zap.Int64("captchas", captchas))
	}
}

// RunNetdiskCleanup removes network-disk entries older than the configured
// number of days.
func (s *Scheduler) RunNetdiskCleanup(ctx context.Context) {
	s.logger.Info("Starting network disk cleanup run...")
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	report, err := s.disk.Cleanup(ctx, 0, false)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(jobNetdiskCleanup, "error").Inc()
		s.logger.Error("Network disk cleanup failed", zap.Error(err))
		return
	}
	status := "success"
	if len(report.Errors) > 0 {
		status = "partial"
		s.logger.Warn("Network disk cleanup finished with errors", zap.Strings("errors", report.Errors))
	}
	metrics.JobRunsTotal.WithLabelValues(jobNetdiskCleanup, status).Inc()
	s.logger.Info("Network disk cleanup completed",
		zap.Time("cutoff", report.Cutoff),
		zap.Int("files_deleted", len(report.DeletedFiles)),
		zap.Int("dirs_deleted", len(report.DeletedDirs)),
	)
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	s.logger.Info("Stopping job scheduler...")
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("Job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		s.logger.Warn("Job scheduler stop timed out.")
	}
}
