package main

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blog_backend/internal/client"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password, imagePath string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			in := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username = prompt(cmd, in, "Username: ")
			}
			if password == "" {
				password = prompt(cmd, in, "Password: ")
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			ch, err := a.client.Captcha(ctx)
			if err != nil {
				return fmt.Errorf("fetch captcha: %w", err)
			}
			if err := writeCaptchaImage(imagePath, ch.ImageBase64); err != nil {
				return err
			}
			a.out.Println("Captcha image written to %s", imagePath)
			answer := prompt(cmd, in, "Captcha: ")

			tok, err := a.client.Login(ctx, client.LoginRequest{
				Username:     username,
				Password:     password,
				CaptchaKey:   ch.Key,
				CaptchaValue: answer,
			})
			if err != nil {
				return err
			}
			a.out.Success("Logged in as %s", tok.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&imagePath, "captcha-image", defaultCaptchaPath(), "where to write the captcha image")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.client.Logout(ctx); err != nil {
				a.out.Warning("Server logout failed: %v", err)
			}
			a.out.Success("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.client.InitUserInfo(ctx); err != nil {
				return err
			}
			snap := a.client.Auth().Snapshot()
			switch snap.State() {
			case client.StateAuthenticated:
				role := "user"
				if snap.User.IsAdmin {
					role = "admin"
				}
				a.out.Println("%s (%s) %s", snap.User.Username, role, snap.User.ID)
			case client.StateExpired:
				a.out.Warning("Your session has expired, log in again")
			default:
				a.out.Println("Not logged in")
			}
			return nil
		},
	}
}

func newSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the locally stored session without contacting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.client.Auth().Snapshot()
			rows := [][]string{
				{"state", snap.State().String()},
				{"session file", a.storage.Path()},
				{"refresh cookie", yesNo(a.client.HasRefreshCookie())},
			}
			if snap.User != nil {
				rows = append(rows, []string{"user", snap.User.Username})
			}
			if exp, ok := client.TokenExpiry(a.client.AccessToken()); ok {
				rows = append(rows, []string{"token expires", exp.Local().Format(time.RFC3339)})
			}
			a.out.Table([]string{"KEY", "VALUE"}, rows)
			return nil
		},
	}
}

func newVisitCmd(a *app) *cobra.Command {
	var from string
	var goLogin bool
	cmd := &cobra.Command{
		Use:   "visit <path>",
		Short: "Check whether the session may open a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			guard := client.NewGuard(a.client, nil)
			d := guard.Check(ctx, args[0], from)
			if d.Err != nil {
				return fmt.Errorf("check session: %w", d.Err)
			}
			switch d.Action {
			case client.Allow:
				a.out.Success("allow %s", d.Route)
			case client.Deny:
				a.out.Warning("deny %s: administrator only", d.Route)
			case client.PromptExpired:
				a.out.Warning("%s: session expired, log in again", d.Route)
			case client.PromptGuest:
				a.out.Warning("%s requires login", d.Route)
				a.out.Println("next: %s", guard.ResolveGuestPrompt(goLogin))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "page the navigation starts from")
	cmd.Flags().BoolVar(&goLogin, "go-login", false, "accept the login prompt for guests")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) string {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(line)
}

func writeCaptchaImage(path, dataURL string) error {
	raw := dataURL
	if i := strings.Index(raw, ","); strings.HasPrefix(raw, "data:") && i >= 0 {
		raw = raw[i+1:]
	}
	png, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("decode captcha image: %w", err)
	}
	return os.WriteFile(path, png, 0o600)
}

func defaultCaptchaPath() string {
	return filepath.Join(os.TempDir(), "blogctl-captcha.png")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
