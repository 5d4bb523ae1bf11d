package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginRequest is the login payload. A captcha from Captcha is required.
type LoginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	CaptchaKey   string `json:"captcha_key"`
	CaptchaValue string `json:"captcha_value"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Protect  string `json:"protect"`
	Answer   string `json:"answer"`
}

// Captcha is a freshly issued challenge.
type Captcha struct {
	Key         string    `json:"captcha_key"`
	ImageURL    string    `json:"captcha_image"`
	ImageBase64 string    `json:"image_base64"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Profile is a public user profile.
type Profile struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	RegisteredTime time.Time `json:"registered_time"`
	Avatar         *string   `json:"avatar"`
	IsAdmin        bool      `json:"is_admin"`
	FollowCount    int64     `json:"follow_count"`
	FollowerCount  int64     `json:"follower_count"`
}

// Login authenticates and stores the access token, the user and the
// refresh cookie.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: "/auth/login", Body: req}, "")
	if err == nil {
		err = resp.err()
	}
	if err != nil {
		return nil, err
	}
	var tok TokenResponse
	if err := resp.Decode(&tok); err != nil {
		return nil, err
	}
	c.storeToken(&tok)
	c.logger.Info("Logged in", zap.String("username", tok.User.Username))
	return &tok, nil
}

// Logout revokes the session on the server. Local state is reset even when
// the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: "/auth/logout"}, c.AccessToken())
	if err == nil {
		err = resp.err()
	}
	c.resetLocalSession()
	if err != nil {
		c.logger.Warn("Server logout failed; local session cleared anyway", zap.Error(err))
	}
	return err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Profile, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: "/register", Body: req}, "")
	if err == nil {
		err = resp.err()
	}
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Captcha requests a new challenge.
func (c *Client) Captcha(ctx context.Context) (*Captcha, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodGet, Path: "/captcha"}, "")
	if err == nil {
		err = resp.err()
	}
	if err != nil {
		return nil, err
	}
	var ch Captcha
	if err := resp.Decode(&ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

type userInfoData struct {
	User            *UserInfo `json:"user"`
	IsAuthenticated bool      `json:"is_authenticated"`
}

// FetchUserInfo asks the server who the current token belongs to and
// updates the AuthStore. An expired session is returned as ErrTokenExpired
// with the cached user left in place; a cancelled ctx leaves the store alone.
func (c *Client) FetchUserInfo(ctx context.Context) (*UserInfo, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/user/info"})
	if err != nil {
		if errors.Is(err, ErrTokenExpired) || ctx.Err() != nil {
			return nil, err
		}
		if !c.auth.Snapshot().TokenExpired {
			c.auth.Clear()
		}
		return nil, err
	}
	var data userInfoData
	if err := resp.Decode(&data); err != nil {
		if !c.auth.Snapshot().TokenExpired {
			c.auth.Clear()
		}
		return nil, err
	}
	if !data.IsAuthenticated || data.User == nil {
		c.auth.Clear()
		return nil, nil
	}
	c.auth.SetUser(data.User)
	return data.User, nil
}

// InitUserInfo restores the session at start-up. With a stored token the
// user is fetched from the server; an expired session is not an error. With
// no token an expired flag is kept, otherwise the session is a guest.
func (c *Client) InitUserInfo(ctx context.Context) error {
	c.auth.SyncFromStorage()

	if c.AccessToken() != "" {
		_, err := c.FetchUserInfo(ctx)
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}

	flag, _ := c.storage.Get(KeyTokenExpired)
	if flag == "true" && c.auth.Snapshot().TokenExpired {
		return nil
	}
	c.auth.Clear()
	return nil
}
