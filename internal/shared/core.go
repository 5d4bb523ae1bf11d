package shared

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrTokenExpired is returned when a token is well formed but past its exp.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenMalformed covers bad signatures, bad encodings and missing claims.
	ErrTokenMalformed = errors.New("token is invalid")
	// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa.
	ErrWrongTokenType = errors.New("unexpected token type")
)

// UserDataForToken is an interface to abstract the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetUsername() string
}

// TokenResponse represents the body returned by login and refresh.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	GenerateRefreshToken(userData UserDataForToken) (string, time.Time, error)
	// ValidateToken checks signature and expiry and requires an access token.
	ValidateToken(tokenString string) (*Claims, error)
	// ParseRefreshToken checks signature and expiry and requires a refresh token.
	ParseRefreshToken(tokenString string) (*Claims, error)
}

// TokenLifetimes lets the runtime site config override token lifetimes.
type TokenLifetimes interface {
	AccessTokenLifetime() time.Duration
	RefreshTokenLifetime() time.Duration
}

// Claims represents the JWT claims structure
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	TokenType string    `json:"token_type"`
	jwt.RegisteredClaims
}
