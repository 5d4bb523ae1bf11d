// File: internal/common/context_helpers.go
package common

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetTokenFromContext retrieves the JWT token string from the Authorization header.
// Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// GetUserIDFromContext retrieves the user ID from the Gin context.
// Returns uuid.Nil if not found or not a UUID.
func GetUserIDFromContext(c *gin.Context) uuid.UUID {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// GetOptionalUserID returns a pointer to the caller's ID, nil for guests.
func GetOptionalUserID(c *gin.Context) *uuid.UUID {
	id := GetUserIDFromContext(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// GetUsernameFromContext retrieves the username from the Gin context.
func GetUsernameFromContext(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

// ParseUUIDParam parses a path parameter as a UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ErrBadRequest.WithDetails("Invalid " + name + " format.")
	}
	return id, nil
}
