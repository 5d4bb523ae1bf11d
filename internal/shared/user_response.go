// File: internal/shared/user_response.go
package shared

import (
	"context"

	"github.com/google/uuid"
)

// UserResponse is the compact user shape embedded in auth responses.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
	IsAdmin  bool      `json:"is_admin"`
}

// AdminChecker answers whether a user currently holds the admin flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}
