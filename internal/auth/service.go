// File: internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"blog_backend/internal/config"
	"blog_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTService signs and validates HS256 access and refresh tokens.
type JWTService struct {
	cfg       *config.Config
	lifetimes shared.TokenLifetimes
	logger    *zap.Logger
	now       func() time.Time
}

// NewJWTService creates a new JWT service. lifetimes may be nil, in which case
// the static configuration decides how long tokens live.
func NewJWTService(cfg *config.Config, lifetimes shared.TokenLifetimes, logger *zap.Logger) shared.TokenService {
	return &JWTService{cfg: cfg, lifetimes: lifetimes, logger: logger, now: time.Now}
}

func (s *JWTService) accessTTL() time.Duration {
	if s.lifetimes != nil {
		if d := s.lifetimes.AccessTokenLifetime(); d > 0 {
			return d
		}
	}
	return s.cfg.JWTAccessTokenExpiryMinutes
}

func (s *JWTService) refreshTTL() time.Duration {
	if s.lifetimes != nil {
		if d := s.lifetimes.RefreshTokenLifetime(); d > 0 {
			return d
		}
	}
	return s.cfg.JWTRefreshTokenExpiryDays
}

func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.generate(userData, shared.TokenTypeAccess, s.accessTTL())
}

func (s *JWTService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.generate(userData, shared.TokenTypeRefresh, s.refreshTTL())
}

func (s *JWTService) generate(userData shared.UserDataForToken, tokenType string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := s.now()
	expirationTime := issuedAt.Add(ttl)

	claims := &shared.Claims{
		UserID:    userData.GetID(),
		Username:  userData.GetUsername(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    s.cfg.JWTIssuer,
			Subject:   userData.GetID().String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign token", zap.String("tokenType", tokenType), zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign %s token: %w", tokenType, err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, shared.TokenTypeAccess)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (s *JWTService) ParseRefreshToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, shared.TokenTypeRefresh)
}

func (s *JWTService) parse(tokenString, wantType string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
		}
		s.logger.Debug("Failed to validate token", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenMalformed, err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, shared.ErrTokenMalformed
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: got %q, want %q", shared.ErrWrongTokenType, claims.TokenType, wantType)
	}
	return claims, nil
}
