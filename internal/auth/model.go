// File: internal/auth/model.go
package auth

import (
	"net/http"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/shared"

	"github.com/google/uuid"
)

// RefreshToken is the server-side record of an issued refresh token. Only the
// SHA-256 of the token is stored.
type RefreshToken struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	TokenHash  string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	CreatedAt  time.Time  `gorm:"not null"`
	LastUsedAt *time.Time
}

// TableName specifies the table name for the RefreshToken model.
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Username     string `json:"username" binding:"required,max=50"`
	Password     string `json:"password" binding:"required,max=128"`
	CaptchaKey   string `json:"captcha_key" binding:"required"`
	CaptchaValue string `json:"captcha_value" binding:"required"`
}

// LoginResult is what a successful login produces. The refresh token never
// goes into the JSON body; the handler turns it into a cookie.
type LoginResult struct {
	Token            shared.TokenResponse
	RefreshToken     string
	RefreshExpiresAt time.Time
}

var (
	ErrInvalidCredentials  = common.NewAPIError(http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid username or password.")
	ErrMissingRefreshToken = common.NewAPIError(http.StatusBadRequest, "MISSING_REFRESH_TOKEN", "Refresh token is missing.")
	ErrInvalidRefreshToken = common.NewAPIError(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid.")
	ErrInvalidTokenType    = common.NewAPIError(http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "Token type is invalid.")
	ErrRefreshTokenInvalid = common.NewAPIError(http.StatusUnauthorized, "REFRESH_TOKEN_INVALID", "Refresh token is not recognised. Please log in again.")
	ErrRefreshTokenExpired = common.NewAPIError(http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "Refresh token has expired. Please log in again.")
)
