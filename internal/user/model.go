// File: internal/user/model.go
package user

import (
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/shared"

	"github.com/google/uuid"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	Username       string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash   string    `gorm:"column:password;type:varchar(255);not null"`
	Protect        string    `gorm:"type:varchar(255);not null"` // security question shown on password recovery
	AnswerHash     string    `gorm:"column:answer;type:varchar(255);not null"`
	RegisteredTime time.Time `gorm:"not null"`
	Avatar         *string   `gorm:"type:varchar(500)"`
	BgColor        *string   `gorm:"type:varchar(20)"`
	BgPattern      *string   `gorm:"type:varchar(50)"`
	CornerRadius   *string   `gorm:"type:varchar(10)"`
	IsAdmin        bool      `gorm:"not null;default:false"`
	FollowCount    int64     `gorm:"not null;default:0"`
	FollowerCount  int64     `gorm:"not null;default:0"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetUsername() string {
	return u.Username
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// RegisterRequest defines the structure for creating a new user.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"` // bcrypt max is 72 bytes
	Protect  string `json:"protect" binding:"required,max=255"`
	Answer   string `json:"answer" binding:"required,max=255"`
}

// UpdateProfileRequest carries the personal-page appearance settings.
type UpdateProfileRequest struct {
	Avatar       *string `json:"avatar,omitempty" binding:"omitempty,max=500"`
	BgColor      *string `json:"bg_color,omitempty" binding:"omitempty,max=20"`
	BgPattern    *string `json:"bg_pattern,omitempty" binding:"omitempty,max=50"`
	CornerRadius *string `json:"corner_radius,omitempty" binding:"omitempty,max=10"`
}

// ForgotRequest covers both recovery steps: without answer it returns the
// security question, with answer it verifies it.
type ForgotRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Answer   string `json:"answer,omitempty" binding:"max=255"`
}

// ResetPasswordRequest sets a new password after the answer is verified again.
type ResetPasswordRequest struct {
	Username    string `json:"username" binding:"required,max=50"`
	Answer      string `json:"answer" binding:"required,max=255"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Protect        string    `json:"protect,omitempty"`
	RegisteredTime time.Time `json:"registered_time"`
	Avatar         *string   `json:"avatar"`
	BgColor        *string   `json:"bg_color"`
	BgPattern      *string   `json:"bg_pattern"`
	CornerRadius   *string   `json:"corner_radius"`
	IsAdmin        bool      `json:"is_admin"`
	FollowCount    int64     `json:"follow_count"`
	FollowerCount  int64     `json:"follower_count"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Protect:        u.Protect,
		RegisteredTime: u.RegisteredTime,
		Avatar:         u.Avatar,
		BgColor:        u.BgColor,
		BgPattern:      u.BgPattern,
		CornerRadius:   u.CornerRadius,
		IsAdmin:        u.IsAdmin,
		FollowCount:    u.FollowCount,
		FollowerCount:  u.FollowerCount,
	}
}

// ToPublicResponse drops the security question for profiles seen by others.
func ToPublicResponse(u *User) UserResponse {
	resp := ToUserResponse(u)
	resp.Protect = ""
	return resp
}

// ToShared converts a User into the compact shape embedded in auth responses.
func ToShared(u *User) shared.UserResponse {
	resp := shared.UserResponse{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
	if u.Avatar != nil {
		resp.Avatar = *u.Avatar
	}
	return resp
}
