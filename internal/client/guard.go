package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Action is the outcome of a navigation check.
type Action int

const (
	Allow Action = iota
	PromptGuest
	PromptExpired
	Deny
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case PromptGuest:
		return "prompt-guest"
	case PromptExpired:
		return "prompt-expired"
	default:
		return "deny"
	}
}

// Route declares what a path prefix requires.
type Route struct {
	Prefix        string
	RequiresAuth  bool
	RequiresAdmin bool
}

// DefaultRoutes are the front-end areas that need a session.
var DefaultRoutes = []Route{
	{Prefix: "/admin", RequiresAuth: true, RequiresAdmin: true},
	{Prefix: "/profile", RequiresAuth: true},
	{Prefix: "/netdisk", RequiresAuth: true},
	{Prefix: "/feedback", RequiresAuth: true},
	{Prefix: "/notifications", RequiresAuth: true},
}

// Decision tells the caller whether to enter Route. Err is set when the
// session could not be checked (server unreachable or ctx done); the session
// itself is left untouched in that case.
type Decision struct {
	Action    Action
	Route     string
	SavedFrom string
	Err       error
}

// Guard gates navigation on the session state. Checks on protected routes
// refresh a locally expired token through the client's shared refresh.
type Guard struct {
	client *Client
	routes []Route
	skew   time.Duration
}

// NewGuard builds a guard; nil routes means DefaultRoutes.
func NewGuard(c *Client, routes []Route) *Guard {
	if routes == nil {
		routes = DefaultRoutes
	}
	return &Guard{client: c, routes: routes, skew: 5 * time.Second}
}

func (g *Guard) match(path string) (Route, bool) {
	var best Route
	found := false
	for _, r := range g.routes {
		if path != r.Prefix && !strings.HasPrefix(path, strings.TrimRight(r.Prefix, "/")+"/") {
			continue
		}
		if !found || len(r.Prefix) > len(best.Prefix) {
			best, found = r, true
		}
	}
	return best, found
}

// Check decides whether the navigation from -> to may proceed.
func (g *Guard) Check(ctx context.Context, to, from string) Decision {
	route, ok := g.match(to)
	if !ok || !route.RequiresAuth {
		return Decision{Action: Allow, Route: to}
	}

	auth := g.client.auth
	snap := auth.Snapshot()
	switch snap.State() {
	case StateAuthenticated:
		if IsTokenExpired(g.client.AccessToken(), g.client.now(), g.skew) {
			if _, err := g.client.Refresh(ctx); err != nil {
				if !errors.Is(err, ErrTokenExpired) {
					g.client.logger.Warn("Could not refresh session during navigation", zap.String("to", to), zap.Error(err))
					return Decision{Action: Deny, Route: to, Err: err}
				}
				g.client.logger.Info("Session expired during navigation", zap.String("to", to), zap.Error(err))
				auth.SetTokenExpired()
				return Decision{Action: PromptExpired, Route: to}
			}
			snap = auth.Snapshot()
		}
		if route.RequiresAdmin && (snap.User == nil || !snap.User.IsAdmin) {
			return Decision{Action: Deny, Route: to}
		}
		return Decision{Action: Allow, Route: to}
	case StateExpired:
		return Decision{Action: PromptExpired, Route: to}
	default:
		if from == "" {
			from = "/"
		}
		if err := g.client.storage.Set(KeyGuestFromPath, from); err != nil {
			g.client.logger.Warn("Failed to remember guest origin", zap.Error(err))
		}
		return Decision{Action: PromptGuest, Route: to, SavedFrom: from}
	}
}

// ResolveGuestPrompt returns where to go after the guest prompt closes:
// the login page when accepted, otherwise back to the saved origin.
func (g *Guard) ResolveGuestPrompt(goLogin bool) string {
	saved, _ := g.client.storage.Get(KeyGuestFromPath)
	if err := g.client.storage.Delete(KeyGuestFromPath); err != nil {
		g.client.logger.Warn("Failed to clear guest origin", zap.Error(err))
	}
	if goLogin {
		return "/login"
	}
	if saved == "" || saved == "/login" {
		return "/"
	}
	return saved
}
