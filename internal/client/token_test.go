package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	got, ok := TokenExpiry(signToken(t, exp))
	assert.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("")
	assert.False(t, ok)
	_, ok = TokenExpiry("not.a.jwt")
	assert.False(t, ok)
}

func TestIsTokenExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		skew  time.Duration
		want  bool
	}{
		{"missing", "", 0, true},
		{"garbage", "abc", 0, true},
		{"expired", signToken(t, now.Add(-time.Minute)), 0, true},
		{"valid", signToken(t, now.Add(time.Hour)), 0, false},
		{"inside skew", signToken(t, now.Add(3*time.Second)), 5 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTokenExpired(tt.token, now, tt.skew))
		})
	}
}
