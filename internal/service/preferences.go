package service

import (
	"context"
	"strings"

	"github.com/target/storefront-go/config"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/ports"
	"github.com/target/storefront-go/internal/validation"
)

// PreferenceServiceOptions groups dependencies for PreferenceService.
type PreferenceServiceOptions struct {
	Store  ports.Store              // Required: persistence for theme and locale
	Config config.PreferencesConfig // Allowed values and defaults
}

// PreferenceService persists the selected theme and locale. Both survive logout.
type PreferenceService struct {
	store ports.Store
	cfg   config.PreferencesConfig
}

// NewPreferenceService constructs a PreferenceService. The config is sanitized so the
// defaults are always members of their sets.
func NewPreferenceService(opts PreferenceServiceOptions) *PreferenceService {
	if opts.Store == nil {
		panic("PreferenceService requires a non-nil Store")
	}
	cfg := opts.Config
	cfg.Sanitize()
	return &PreferenceService{store: opts.Store, cfg: cfg}
}

// Themes returns the selectable themes.
func (s *PreferenceService) Themes() []string { return append([]string(nil), s.cfg.Themes...) }

// Locales returns the selectable locales.
func (s *PreferenceService) Locales() []string { return append([]string(nil), s.cfg.Locales...) }

// Theme returns the stored theme, or the default when none is stored or the stored value
// is no longer allowed.
func (s *PreferenceService) Theme(ctx context.Context) (string, error) {
	return s.read(ctx, ports.KeyTheme, s.cfg.Themes, s.cfg.DefaultTheme)
}

// SetTheme stores theme.
func (s *PreferenceService) SetTheme(ctx context.Context, theme string) error {
	return s.write(ctx, ports.KeyTheme, "theme", theme, s.cfg.Themes)
}

// Locale returns the stored locale, or the default.
func (s *PreferenceService) Locale(ctx context.Context) (string, error) {
	return s.read(ctx, ports.KeyLocale, s.cfg.Locales, s.cfg.DefaultLocale)
}

// SetLocale stores locale.
func (s *PreferenceService) SetLocale(ctx context.Context, locale string) error {
	return s.write(ctx, ports.KeyLocale, "locale", locale, s.cfg.Locales)
}

func (s *PreferenceService) read(ctx context.Context, key string, allowed []string, fallback string) (string, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return fallback, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not read preferences.")
	}
	v := strings.ToLower(strings.TrimSpace(string(raw)))
	if validation.OneOf(key, v, allowed) != nil {
		return fallback, nil
	}
	return v, nil
}

func (s *PreferenceService) write(ctx context.Context, key, field, value string, allowed []string) error {
	if err := validation.OneOf(field, value, allowed); err != nil {
		return err
	}
	v := strings.ToLower(strings.TrimSpace(value))
	if err := s.store.Set(ctx, key, []byte(v)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save preferences.")
	}
	return nil
}
