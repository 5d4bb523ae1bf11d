package admin

import "github.com/google/uuid"

// TrendDays is the width of the statistics trend window.
const TrendDays = 7

// CountPair is a total together with today's increment.
type CountPair struct {
	Total    int64 `json:"total"`
	TodayNew int64 `json:"today_new"`
}

// TrendPoint counts new users and articles on one day.
type TrendPoint struct {
	Date     string `json:"date"`
	Users    int64  `json:"users"`
	Articles int64  `json:"articles"`
}

// DiskSummary sums up the network disk.
type DiskSummary struct {
	FileCount      int   `json:"file_count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// Statistics is the dashboard payload.
type Statistics struct {
	Users       CountPair    `json:"users"`
	Articles    CountPair    `json:"articles"`
	Views       int64        `json:"views"`
	Loves       int64        `json:"loves"`
	NetworkDisk DiskSummary  `json:"network_disk"`
	Trend       []TrendPoint `json:"trend"`
}

// UpdateUserRequest lets an administrator rename a user or change their
// personal-page appearance. Empty strings clear the appearance fields.
type UpdateUserRequest struct {
	Username     *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Avatar       *string `json:"avatar,omitempty" binding:"omitempty,max=500"`
	BgColor      *string `json:"bg_color,omitempty" binding:"omitempty,max=20"`
	BgPattern    *string `json:"bg_pattern,omitempty" binding:"omitempty,max=50"`
	CornerRadius *string `json:"corner_radius,omitempty" binding:"omitempty,max=10"`
}

func (r UpdateUserRequest) empty() bool {
	return r.Username == nil && r.Avatar == nil && r.BgColor == nil && r.BgPattern == nil && r.CornerRadius == nil
}

// UserListQuery filters the admin user list.
type UserListQuery struct {
	Search   string `form:"search" binding:"max=50"`
	Page     int    `form:"-"`
	PageSize int    `form:"-"`
}

// ToggleAdminResult reports the new admin flag.
type ToggleAdminResult struct {
	UserID  uuid.UUID `json:"user_id"`
	IsAdmin bool      `json:"is_admin"`
}
