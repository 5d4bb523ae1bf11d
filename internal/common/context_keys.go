// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// UserIDKey is the context key for storing the authenticated user's ID
	UserIDKey = "userID"
	// UsernameKey is the context key for storing the authenticated user's name
	UsernameKey = "username"
	// UserClaimsKey stores the whole claims object
	UserClaimsKey = "userClaims"
	// AccessTokenKey stores the raw bearer token of the request
	AccessTokenKey = "accessToken"
)
