// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"blog_backend/internal/config"
	"blog_backend/internal/platform/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Blog API server and maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	root.AddCommand(
		newCreateAdminCmd(),
		newCleanupFilesCmd(),
		newSyncArticlesCmd(),
		newSeedCmd(),
	)
	return root
}

func startServer() error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("FATAL: Failed to load configuration: %v", err)
		return err
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Printf("FATAL: Failed to initialize server: %v", err)
		return err
	}
	defer cleanup()
	defer func() { _ = server.AppLogger.Sync() }()

	if server.ESClient == nil {
		server.AppLogger.Info("Elasticsearch client not initialized, article search uses the database.")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		server.AppLogger.Info("Received signal, shutting down server...", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		server.AppLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	server.AppLogger.Info("Server shutdown complete.")
	return nil
}

// bootstrap loads configuration and a logger for the maintenance commands.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, appLogger, nil
}

var errUsage = errors.New("invalid arguments")
