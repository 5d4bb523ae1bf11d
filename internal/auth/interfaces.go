// File: internal/auth/interfaces.go
package auth

import (
	"context"

	"blog_backend/internal/user"

	"github.com/google/uuid"
)

// UserAuthenticator is the slice of the user service that login and refresh need.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// CaptchaVerifier checks and consumes a captcha answer.
type CaptchaVerifier interface {
	Verify(ctx context.Context, key, value string) error
}
