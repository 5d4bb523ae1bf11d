// Command blogctl drives the blog API from a terminal. It keeps a session
// file so that login survives between invocations and refreshes the access
// token silently when it expires.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blog_backend/internal/client"
	"blog_backend/internal/platform/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const requestTimeout = 2 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is the per-invocation state shared by every command.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	storage *client.FileStorage
	client  *client.Client
	out     *printer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "blogctl",
		Short: "Command line client for the blog API",
		Long: `blogctl talks to a blog API server with a persistent session.

Example usage:
  blogctl login --username alice     # log in (prompts for password and captcha)
  blogctl whoami                     # show the current user
  blogctl articles --search go       # list articles
  blogctl disk upload notes.txt      # upload into your network-disk folder`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("server", "http://localhost:8080", "API server base URL")
	pf.String("session-file", defaultSessionFile(), "where the session is stored")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.Bool("no-color", false, "disable colored output")
	_ = a.v.BindPFlags(pf)

	a.v.SetEnvPrefix("BLOGCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newSessionCmd(a),
		newVisitCmd(a),
		newArticlesCmd(a),
		newArticleCmd(a),
		newCommentCmd(a),
		newLikeCmd(a),
		newDiskCmd(a),
		newConfigCmd(a),
	)
	return root
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".blogctl-session.json"
	}
	return filepath.Join(dir, "blogctl", "session.json")
}

func (a *app) init(cmd *cobra.Command) error {
	a.logger = logger.NewCLI(a.v.GetBool("verbose"))
	a.out = newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), !a.v.GetBool("no-color"))

	storage, err := client.NewFileStorage(a.v.GetString("session-file"))
	if err != nil {
		return err
	}
	a.storage = storage

	c, err := client.New(a.v.GetString("server"), storage,
		client.WithLogger(a.logger),
		client.WithUserAgent("blogctl/1"),
	)
	if err != nil {
		return err
	}
	a.client = c
	c.Auth().SyncFromStorage()
	a.logger.Debug("Session loaded",
		zap.String("server", a.v.GetString("server")),
		zap.String("sessionFile", storage.Path()),
	)
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}
