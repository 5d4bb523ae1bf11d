package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const (
	apiPrefix                = "/api/v1"
	refreshPath              = "/auth/refresh"
	DefaultRefreshCookieName = "refresh_token"
	defaultTimeout           = 30 * time.Second
	refreshTimeout           = defaultTimeout
)

// ErrTokenExpired is returned when the access token was rejected and the
// server refused to refresh it. The cached user is kept so the caller can offer a login
// for the same account.
var ErrTokenExpired = errors.New("session expired, please log in again")

// APIError is an error body returned by the server.
type APIError struct {
	StatusCode int             `json:"-"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Pagination mirrors the server's pagination block.
type Pagination struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Request describes one API call. Path is relative to /api/v1. Body is
// sent as JSON; RawBody with ContentType takes precedence over it.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        interface{}
	RawBody     []byte
	ContentType string
}

// Response is a decoded API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Message    string
	Data       json.RawMessage
	Pagination *Pagination
	Body       []byte
}

// Decode unmarshals the data field into v. An absent data field leaves v
// untouched.
func (r *Response) Decode(v interface{}) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (r *Response) err() error {
	if r.StatusCode < http.StatusBadRequest {
		return nil
	}
	apiErr := &APIError{StatusCode: r.StatusCode}
	if err := json.Unmarshal(r.Body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(r.StatusCode)
	}
	return apiErr
}

type envelope struct {
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserInfo  `json:"user"`
}

// Client talks to the blog API on behalf of one session.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	jar        http.CookieJar
	storage    Storage
	auth       *AuthStore
	logger     *zap.Logger
	cookieName string
	userAgent  string
	now        func() time.Time

	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client. Its Jar is overwritten.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithRefreshCookieName(name string) Option {
	return func(c *Client) { c.cookieName = name }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New builds a client for the server at baseURL. A refresh cookie mirrored
// in storage by an earlier process is loaded into the cookie jar.
func New(baseURL string, storage Storage, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    u,
		jar:        jar,
		storage:    storage,
		logger:     zap.NewNop(),
		cookieName: DefaultRefreshCookieName,
		userAgent:  "blog-client/1",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	c.http.Jar = jar
	c.logger = c.logger.Named("client")
	c.auth = NewAuthStore(storage, c.logger)
	c.restoreRefreshCookie()
	return c, nil
}

// Auth exposes the session flags.
func (c *Client) Auth() *AuthStore {
	return c.auth
}

func (c *Client) Storage() Storage {
	return c.storage
}

// AccessToken returns the stored access token, if any.
func (c *Client) AccessToken() string {
	token, _ := c.storage.Get(KeyAccessToken)
	return token
}

// HasRefreshCookie reports whether the jar holds a refresh cookie.
func (c *Client) HasRefreshCookie() bool {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == c.cookieName && ck.Value != "" {
			return true
		}
	}
	return false
}

// Do sends req with the stored access token. A 401 triggers one shared
// refresh and a single retry with the new token. When the server rejects the
// refresh the session is marked expired locally and an error wrapping
// ErrTokenExpired is returned. A refresh that never got an answer, or that
// the caller stopped waiting for, leaves the session as it was.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req, c.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.Path == refreshPath {
		return resp, resp.err()
	}

	if !c.HasRefreshCookie() && !c.auth.Snapshot().WasLoggedIn {
		c.auth.Clear()
		return resp, resp.err()
	}

	c.logger.Debug("Access token rejected, refreshing", zap.String("path", req.Path))
	tok, err := c.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, req, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	return resp, resp.err()
}

// Refresh exchanges the refresh cookie for a new access token. Concurrent
// callers share a single request. The shared request is detached from ctx
// and bounded by its own timeout, so a caller that gives up gets ctx.Err()
// while the refresh finishes for everyone else.
func (c *Client) Refresh(ctx context.Context) (*TokenResponse, error) {
	ch := c.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		c.logger.Debug("Stopped waiting for token refresh", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TokenResponse), nil
	}
}

// refresh performs the refresh call. Only an answer from the server can end
// the session; transport failures are returned without touching local state.
func (c *Client) refresh(ctx context.Context) (*TokenResponse, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: refreshPath}, "")
	if err != nil {
		c.logger.Warn("Token refresh did not reach the server", zap.Error(err))
		return nil, err
	}
	err = resp.err()
	var tok TokenResponse
	if err == nil {
		err = resp.Decode(&tok)
	}
	if err == nil && tok.AccessToken == "" {
		err = errors.New("refresh response carried no access token")
	}
	if err != nil {
		c.logger.Info("Token refresh rejected", zap.Error(err))
		c.expireLocalSession()
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}
	c.storeToken(&tok)
	c.logger.Debug("Access token refreshed", zap.Time("expiresAt", tok.ExpiresAt))
	return &tok, nil
}

// storeToken persists a fresh token and marks the session authenticated.
func (c *Client) storeToken(tok *TokenResponse) {
	if err := c.storage.Set(KeyAccessToken, tok.AccessToken); err != nil {
		c.logger.Warn("Failed to persist access token", zap.Error(err))
	}
	if data, err := json.Marshal(tok.User); err == nil {
		if err := c.storage.Set(KeyUserInfo, string(data)); err != nil {
			c.logger.Warn("Failed to persist user info", zap.Error(err))
		}
	}
	u := tok.User
	c.auth.SetUser(&u)
}

// expireLocalSession drops the access token. A session that belonged to a
// user becomes expired; anything else falls back to guest.
func (c *Client) expireLocalSession() {
	c.deleteKey(KeyAccessToken)
	snap := c.auth.Snapshot()
	if snap.User != nil || snap.WasLoggedIn {
		c.auth.SetTokenExpired()
		return
	}
	c.auth.Clear()
}

func (c *Client) resetLocalSession() {
	for _, key := range []string{KeyAccessToken, KeyUserInfo, KeyRefreshCookie} {
		c.deleteKey(key)
	}
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: c.cookieName, Value: "", Path: "/", MaxAge: -1}})
	c.auth.ResetLoginState()
}

func (c *Client) deleteKey(key string) {
	if err := c.storage.Delete(key); err != nil {
		c.logger.Warn("Failed to delete session key", zap.String("key", key), zap.Error(err))
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + apiPrefix + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) send(ctx context.Context, req *Request, token string) (*Response, error) {
	var body io.Reader
	contentType := req.ContentType
	switch {
	case req.RawBody != nil:
		body = bytes.NewReader(req.RawBody)
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.endpoint(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer httpResp.Body.Close()
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	c.persistRefreshCookie(httpResp)
	c.logger.Debug("API call",
		zap.String("method", method),
		zap.String("path", req.Path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", c.now().Sub(start)),
	)

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: raw}
	if strings.HasPrefix(httpResp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			resp.Message = env.Message
			resp.Data = env.Data
			resp.Pagination = env.Pagination
		}
	}
	return resp, nil
}

type storedCookie struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// persistRefreshCookie mirrors a refresh cookie set or cleared by the
// server into storage.
func (c *Client) persistRefreshCookie(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != c.cookieName {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			c.deleteKey(KeyRefreshCookie)
			continue
		}
		sc := storedCookie{Value: ck.Value}
		switch {
		case ck.MaxAge > 0:
			sc.Expires = c.now().Add(time.Duration(ck.MaxAge) * time.Second)
		case !ck.Expires.IsZero():
			sc.Expires = ck.Expires
		}
		data, err := json.Marshal(sc)
		if err != nil {
			continue
		}
		if err := c.storage.Set(KeyRefreshCookie, string(data)); err != nil {
			c.logger.Warn("Failed to persist refresh cookie", zap.Error(err))
		}
	}
}

func (c *Client) restoreRefreshCookie() {
	raw, ok := c.storage.Get(KeyRefreshCookie)
	if !ok || raw == "" {
		return
	}
	var sc storedCookie
	if err := json.Unmarshal([]byte(raw), &sc); err != nil || sc.Value == "" {
		c.deleteKey(KeyRefreshCookie)
		return
	}
	if !sc.Expires.IsZero() && !sc.Expires.After(c.now()) {
		c.deleteKey(KeyRefreshCookie)
		return
	}
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:     c.cookieName,
		Value:    sc.Value,
		Path:     "/",
		Expires:  sc.Expires,
		HttpOnly: true,
	}})
}
