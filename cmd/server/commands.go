package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"blog_backend/internal/app"
	"blog_backend/internal/article"
	"blog_backend/internal/common"
	"blog_backend/internal/netdisk"
	"blog_backend/internal/platform/elasticsearch"
	"blog_backend/internal/platform/output"
	"blog_backend/internal/siteconfig"
	"blog_backend/internal/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCreateAdminCmd() *cobra.Command {
	var username, password, protect, answer string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("%w: --username is required", errUsage)
			}
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			db, cleanup, err := app.ProvideDatabase(cfg, appLogger)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			repo := user.NewGORMRepository(db)
			usr, err := repo.FindByUsername(ctx, username)
			switch {
			case errors.Is(err, common.ErrNotFound):
				if password == "" || protect == "" || answer == "" {
					return fmt.Errorf("%w: --password, --protect and --answer are required for a new user", errUsage)
				}
				svc := user.NewService(repo, app.ProvideLoginLimiter(cfg), appLogger)
				usr, err = svc.Register(ctx, user.RegisterRequest{Username: username, Password: password, Protect: protect, Answer: answer})
				if err != nil {
					return fmt.Errorf("register %s: %w", username, err)
				}
			case err != nil:
				return fmt.Errorf("look up %s: %w", username, err)
			}

			status := "already admin"
			if !usr.IsAdmin {
				usr.IsAdmin = true
				if err := repo.Update(ctx, usr); err != nil {
					return fmt.Errorf("promote %s: %w", username, err)
				}
				status = "promoted"
			}
			appLogger.Info("Administrator ready", zap.String("username", usr.Username), zap.String("userID", usr.ID.String()))

			table := output.NewTable(cmd.OutOrStdout(), "username", "id", "status")
			table.AddRow(usr.Username, usr.ID.String(), status)
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password for a new user")
	cmd.Flags().StringVar(&protect, "protect", "", "security question for a new user")
	cmd.Flags().StringVar(&answer, "answer", "", "security answer for a new user")
	return cmd
}

func newCleanupFilesCmd() *cobra.Command {
	var days int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "cleanup-files",
		Short: "Delete network-disk files and folders older than the configured age",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			db, cleanup, err := app.ProvideDatabase(cfg, appLogger)
			if err != nil {
				return err
			}
			defer cleanup()
			store, err := siteconfig.NewStore(cfg, appLogger)
			if err != nil {
				return err
			}
			disk, err := app.ProvideNetdiskService(cfg, user.NewGORMRepository(db), store, appLogger)
			if err != nil {
				return err
			}

			report, err := disk.Cleanup(cmd.Context(), days, dryRun)
			if err != nil {
				return err
			}
			printCleanupReport(cmd, report)
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d entries could not be removed", len(report.Errors))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "age in days (0 uses network_disk.cleanup_days)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would be deleted")
	return cmd
}

func newSyncArticlesCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "sync-articles",
		Short: "Re-index every article in Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			if cfg.ElasticsearchURL == "" {
				return errors.New("ELASTICSEARCH_URL is not set")
			}
			db, cleanup, err := app.ProvideDatabase(cfg, appLogger)
			if err != nil {
				return err
			}
			defer cleanup()

			esClient, err := elasticsearch.NewClient(cfg, appLogger)
			if err != nil {
				return err
			}
			index := app.ProvideSearchIndex(esClient, appLogger)
			if index == nil {
				return errors.New("articles index is unavailable")
			}
			svc := article.NewService(article.NewGORMRepository(db), index, appLogger)

			start := time.Now()
			synced, failed, err := svc.SyncIndex(cmd.Context(), batchSize)
			if err != nil {
				return err
			}
			appLogger.Info("Article synchronization finished",
				zap.Int("synced", synced),
				zap.Int("failed", failed),
				zap.Duration("took", time.Since(start)),
			)
			table := output.NewTable(cmd.OutOrStdout(), "synced", "failed", "took")
			table.AddRow(strconv.Itoa(synced), strconv.Itoa(failed), time.Since(start).Round(time.Millisecond).String())
			table.Render()
			if failed > 0 {
				return fmt.Errorf("%d articles failed to sync", failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "articles per bulk request")
	return cmd
}

func printCleanupReport(cmd *cobra.Command, report *netdisk.CleanupReport) {
	action := "deleted"
	if report.DryRun {
		action = "would delete"
	}
	table := output.NewTable(cmd.OutOrStdout(), "action", "kind", "path")
	for _, f := range report.DeletedFiles {
		table.AddRow(action, "file", f)
	}
	for _, d := range report.DeletedDirs {
		table.AddRow(action, "folder", d)
	}
	for _, e := range report.Errors {
		table.AddRow("failed", "", e)
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "Cutoff %s: %s %d files and %d folders.\n",
		report.Cutoff.Format(time.RFC3339), action, len(report.DeletedFiles), len(report.DeletedDirs))
}
