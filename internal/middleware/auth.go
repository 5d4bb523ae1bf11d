// File: internal/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"

	"blog_backend/internal/auth"
	"blog_backend/internal/common"
	"blog_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	ErrMissingToken     = common.NewAPIError(http.StatusUnauthorized, "MISSING_TOKEN", "Authentication is required.")
	ErrInvalidToken     = common.NewAPIError(http.StatusUnauthorized, "INVALID_TOKEN", "The access token is invalid.")
	ErrTokenExpired     = common.NewAPIError(http.StatusUnauthorized, "TOKEN_EXPIRED", "The access token has expired.")
	ErrInvalidTokenType = common.NewAPIError(http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "An access token is required.")
	ErrTokenRevoked     = common.NewAPIError(http.StatusUnauthorized, "TOKEN_REVOKED", "The access token has been revoked.")
	ErrAdminRequired    = common.NewAPIError(http.StatusForbidden, "ADMIN_REQUIRED", "Administrator privileges are required.")
)

// Authenticator validates bearer tokens against the token service and the
// revocation list.
type Authenticator struct {
	tokens    shared.TokenService
	blocklist auth.TokenBlocklistService
	admins    shared.AdminChecker
	logger    *zap.Logger
}

// NewAuthenticator creates the authentication middleware factory.
func NewAuthenticator(tokens shared.TokenService, blocklist auth.TokenBlocklistService, admins shared.AdminChecker, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, blocklist: blocklist, admins: admins, logger: logger}
}

func (a *Authenticator) authenticate(c *gin.Context) (*shared.Claims, string, *common.APIError) {
	tokenString := common.GetTokenFromContext(c)
	if tokenString == "" {
		return nil, "", ErrMissingToken
	}
	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrTokenExpired):
			return nil, "", ErrTokenExpired
		case errors.Is(err, shared.ErrWrongTokenType):
			return nil, "", ErrInvalidTokenType
		default:
			return nil, "", ErrInvalidToken
		}
	}
	revoked, err := a.blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
	if err != nil {
		a.logger.Error("Blocklist lookup failed", zap.Error(err))
		return nil, "", ErrInvalidToken
	}
	if revoked {
		return nil, "", ErrTokenRevoked
	}
	return claims, tokenString, nil
}

func setIdentity(c *gin.Context, claims *shared.Claims, token string) {
	c.Set(common.UserIDKey, claims.UserID)
	c.Set(common.UsernameKey, claims.Username)
	c.Set(common.UserClaimsKey, claims)
	c.Set(common.AccessTokenKey, token)
}

// Required rejects requests without a valid access token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, token, apiErr := a.authenticate(c)
		if apiErr != nil {
			a.logger.Debug("Authentication failed", zap.String("code", apiErr.Code), zap.String("path", c.Request.URL.Path))
			common.RespondWithError(c, apiErr)
			return
		}
		setIdentity(c, claims, token)
		c.Next()
	}
}

// Optional identifies the caller when possible and treats any failure as a guest.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, token, apiErr := a.authenticate(c); apiErr == nil {
			setIdentity(c, claims, token)
		}
		c.Next()
	}
}

// AdminRequired must run after Required. The admin flag is read from the
// database on every request so revocation takes effect immediately.
func (a *Authenticator) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := common.GetUserIDFromContext(c)
		isAdmin, err := a.admins.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				common.RespondWithError(c, ErrAdminRequired)
				return
			}
			common.RespondWithError(c, err)
			return
		}
		if !isAdmin {
			a.logger.Warn("Non-admin attempted admin route", zap.String("userID", userID.String()), zap.String("path", c.Request.URL.Path))
			common.RespondWithError(c, ErrAdminRequired)
			return
		}
		c.Next()
	}
}

// GetUserClaimsFromContext retrieves the full claims object from the Gin context.
func GetUserClaimsFromContext(c *gin.Context) *shared.Claims {
	val, exists := c.Get(common.UserClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := val.(*shared.Claims)
	return claims
}
