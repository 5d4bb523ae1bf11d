// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"-"` // SERVER_TIMEOUT_SECONDS
	CORSAllowedOrigins []string      `mapstructure:"-"` // CORS_ALLOWED_ORIGINS
	PublicBaseURL      string        `mapstructure:"PUBLIC_BASE_URL"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"` // DB_CONN_MAX_LIFETIME_MINUTES
	DBSource          string        `mapstructure:"DB_SOURCE"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWT Configuration
	JWTSecretKey                string        `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer                   string        `mapstructure:"JWT_ISSUER"`
	JWTAccessTokenExpiryMinutes time.Duration `mapstructure:"-"` // JWT_ACCESS_TOKEN_EXPIRY_MINUTES
	JWTRefreshTokenExpiryDays   time.Duration `mapstructure:"-"` // JWT_REFRESH_TOKEN_EXPIRY_DAYS

	// Refresh cookie
	RefreshCookieName   string `mapstructure:"REFRESH_COOKIE_NAME"`
	RefreshCookieDomain string `mapstructure:"REFRESH_COOKIE_DOMAIN"`
	RefreshCookieSecure bool   `mapstructure:"REFRESH_COOKIE_SECURE"`

	// Login and captcha limits
	LoginMaxAttempts          int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginLockDuration         time.Duration `mapstructure:"-"` // LOGIN_LOCK_MINUTES
	CommentCaptchaMaxFailures int           `mapstructure:"COMMENT_CAPTCHA_MAX_FAILURES"`
	CommentCaptchaLock        time.Duration `mapstructure:"-"` // COMMENT_CAPTCHA_LOCK_MINUTES
	RateLimitRPS              float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst            int           `mapstructure:"RATE_LIMIT_BURST"`

	// Network disk
	NetdiskRoot        string `mapstructure:"NETDISK_ROOT"`
	NetdiskMaxUploadMB int64  `mapstructure:"NETDISK_MAX_UPLOAD_MB"`

	// Site config document (JSON, editable from the admin API)
	SiteConfigPath string `mapstructure:"SITE_CONFIG_PATH"`

	// Cron Jobs
	SessionCleanupJobSchedule string `mapstructure:"SESSION_CLEANUP_JOB_SCHEDULE"`
	NetdiskCleanupJobSchedule string `mapstructure:"NETDISK_CLEANUP_JOB_SCHEDULE"`

	// Elasticsearch Configuration (empty disables article indexing)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`

	// Metrics
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// IsDebug reports whether gin runs in debug mode.
func (c *Config) IsDebug() bool {
	return c.GinMode != "release"
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTAccessTokenExpiryMinutes = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES")) * time.Minute
	cfg.JWTRefreshTokenExpiryDays = time.Duration(v.GetInt("JWT_REFRESH_TOKEN_EXPIRY_DAYS")) * 24 * time.Hour
	cfg.LoginLockDuration = time.Duration(v.GetInt("LOGIN_LOCK_MINUTES")) * time.Minute
	cfg.CommentCaptchaLock = time.Duration(v.GetInt("COMMENT_CAPTCHA_LOCK_MINUTES")) * time.Minute

	// Comma separated list in the environment
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	// The refresh cookie is Secure everywhere except debug mode unless set explicitly.
	if os.Getenv("REFRESH_COOKIE_SECURE") == "" {
		cfg.RefreshCookieSecure = !cfg.IsDebug()
	}

	if cfg.DBDriver == "postgres" && os.Getenv("DB_SOURCE") == "" {
		cfg.DBSource = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "blog_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "blog.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ISSUER", "blog_backend")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 60)
	v.SetDefault("JWT_REFRESH_TOKEN_EXPIRY_DAYS", 30)

	v.SetDefault("REFRESH_COOKIE_NAME", "refresh_token")
	v.SetDefault("REFRESH_COOKIE_DOMAIN", "")
	v.SetDefault("REFRESH_COOKIE_SECURE", false)

	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_LOCK_MINUTES", 60)
	v.SetDefault("COMMENT_CAPTCHA_MAX_FAILURES", 5)
	v.SetDefault("COMMENT_CAPTCHA_LOCK_MINUTES", 5)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("NETDISK_ROOT", "./network_disk")
	v.SetDefault("NETDISK_MAX_UPLOAD_MB", 100)

	v.SetDefault("SITE_CONFIG_PATH", "./site_config.json")

	v.SetDefault("SESSION_CLEANUP_JOB_SCHEDULE", "@every 1m")
	v.SetDefault("NETDISK_CLEANUP_JOB_SCHEDULE", "0 0 * * *")

	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("METRICS_ENABLED", true)
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("FATAL: JWT_SECRET_KEY is not set")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected postgres or sqlite)", c.DBDriver)
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive, got %d", c.LoginMaxAttempts)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
