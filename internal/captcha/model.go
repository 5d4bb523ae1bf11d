package captcha

import (
	"net/http"
	"time"

	"blog_backend/internal/common"
)

// Alphabet excludes characters that are easy to confuse (0/O, 1/I/L).
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Captcha is a stored challenge. Key is the public handle, Response the answer.
type Captcha struct {
	Key       string    `gorm:"column:captcha_key;type:varchar(64);primaryKey"`
	Response  string    `gorm:"type:varchar(16);not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for the Captcha model.
func (Captcha) TableName() string {
	return "captchas"
}

// Challenge is returned to clients when a captcha is generated.
type Challenge struct {
	Key         string    `json:"captcha_key"`
	ImageURL    string    `json:"captcha_image"`
	ImageBase64 string    `json:"image_base64"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyRequest is the body of the standalone verify endpoint.
type VerifyRequest struct {
	Key   string `json:"captcha_key" binding:"required"`
	Value string `json:"captcha_value" binding:"required"`
}

var (
	ErrCaptchaRequired = common.NewAPIError(http.StatusBadRequest, "CAPTCHA_REQUIRED", "Captcha key and value are required.")
	ErrCaptchaInvalid  = common.NewAPIError(http.StatusBadRequest, "INVALID_CAPTCHA", "The captcha answer is incorrect.")
	ErrCaptchaExpired  = common.NewAPIError(http.StatusBadRequest, "CAPTCHA_EXPIRED", "The captcha has expired or does not exist.")
)
