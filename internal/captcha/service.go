package captcha

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/config"
	"blog_backend/internal/platform/crypto"
	"blog_backend/internal/platform/metrics"
	"blog_backend/internal/siteconfig"

	"go.uber.org/zap"
)

// SettingsProvider supplies the current captcha settings.
type SettingsProvider interface {
	Captcha() siteconfig.CaptchaSettings
}

// Service defines captcha operations.
type Service interface {
	Generate(ctx context.Context) (*Challenge, error)
	Image(ctx context.Context, key string) ([]byte, error)
	Verify(ctx context.Context, key, value string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo     Repository
	settings SettingsProvider
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService creates a new captcha service.
func NewService(repo Repository, settings SettingsProvider, cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		settings: settings,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:   logger,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *service) Generate(ctx context.Context) (*Challenge, error) {
	st := s.settings.Captcha()
	key, err := crypto.GenerateSecureRandomString(24)
	if err != nil {
		return nil, fmt.Errorf("generate captcha key: %w", err)
	}
	answer, err := crypto.RandomFromAlphabet(Alphabet, st.Length)
	if err != nil {
		return nil, fmt.Errorf("generate captcha text: %w", err)
	}
	now := s.now()
	rec := &Captcha{Key: key, Response: answer, ExpiresAt: now.Add(st.Timeout), CreatedAt: now}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("Failed to store captcha", zap.Error(err))
		return nil, fmt.Errorf("store captcha: %w", err)
	}

	png, err := s.render(answer, st)
	if err != nil {
		return nil, err
	}
	metrics.CaptchaTotal.WithLabelValues("generate", "success").Inc()
	return &Challenge{
		Key:         key,
		ImageURL:    fmt.Sprintf("%s/api/v1/captcha/image/%s", s.baseURL, key),
		ImageBase64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}

// Image renders the stored challenge again without consuming it.
func (s *service) Image(ctx context.Context, key string) ([]byte, error) {
	rec, err := s.repo.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if !rec.ExpiresAt.After(s.now()) {
		return nil, common.ErrNotFound.WithDetails("Captcha has expired.")
	}
	return s.render(rec.Response, s.settings.Captcha())
}

// Verify compares case-insensitively and deletes the captcha on success.
func (s *service) Verify(ctx context.Context, key, value string) error {
	err := s.verify(ctx, key, value)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.CaptchaTotal.WithLabelValues("verify", result).Inc()
	return err
}

func (s *service) verify(ctx context.Context, key, value string) error {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" {
		return ErrCaptchaRequired
	}
	rec, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ErrCaptchaExpired
		}
		return err
	}
	if !rec.ExpiresAt.After(s.now()) {
		if err := s.repo.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete expired captcha", zap.Error(err))
		}
		return ErrCaptchaExpired
	}
	if !strings.EqualFold(rec.Response, value) {
		return ErrCaptchaInvalid
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("consume captcha: %w", err)
	}
	return nil
}

func (s *service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *service) render(text string, st siteconfig.CaptchaSettings) ([]byte, error) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	png, err := Render(text, st.Width, st.Height, s.rnd)
	if err != nil {
		s.logger.Error("Failed to render captcha", zap.Error(err))
		return nil, err
	}
	return png, nil
}
