package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// HydratePolicy selects how persisted tokens are treated at startup.
type HydratePolicy string

const (
	// HydrateTrust treats a persisted access token as authenticated until a request fails.
	HydrateTrust HydratePolicy = "trust"
	// HydrateVerify calls the verify endpoint, then refresh, and clears state if both fail.
	HydrateVerify HydratePolicy = "verify"
)

// SessionConfig controls the session lifecycle.
type SessionConfig struct {
	HydratePolicy HydratePolicy `env:"SESSION_HYDRATE_POLICY" envDefault:"trust"`
}

// Sanitize falls back to trust for unknown policies.
func (c *SessionConfig) Sanitize() {
	c.HydratePolicy = HydratePolicy(strings.ToLower(strings.TrimSpace(string(c.HydratePolicy))))
	if c.HydratePolicy != HydrateVerify {
		c.HydratePolicy = HydrateTrust
	}
}

// StorageBackend names a ports.Store implementation.
type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StorageFile     StorageBackend = "file"
	StorageRedis    StorageBackend = "redis"
	StoragePostgres StorageBackend = "postgres"
)

// ValidStorageBackends lists the supported backends.
var ValidStorageBackends = []StorageBackend{StorageMemory, StorageFile, StorageRedis, StoragePostgres}

// StorageConfig selects where session and preference state is persisted.
type StorageConfig struct {
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`

	// FilePath is used by the file backend. Defaults to $XDG_CONFIG_HOME/storefront/state.json.
	FilePath string `env:"STORAGE_FILE_PATH"`

	// KeyPrefix namespaces keys for the redis and postgres backends.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"storefront:"`

	// EncryptionKey is a base64 32-byte AES key. When set, values are sealed at rest.
	EncryptionKey string `env:"STORAGE_ENCRYPTION_KEY"`
}

// Sanitize normalises the backend and fills the default file path.
func (c *StorageConfig) Sanitize() {
	c.Backend = StorageBackend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if !slices.Contains(ValidStorageBackends, c.Backend) {
		c.Backend = StorageFile
	}
	c.EncryptionKey = strings.TrimSpace(c.EncryptionKey)
	if strings.TrimSpace(c.FilePath) == "" {
		c.FilePath = defaultStatePath()
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storefront", "state.json")
}

// DefaultLineItemsExpr flattens the server cart's nested line items.
const DefaultLineItemsExpr = `items[].{product_id: product.id, name: product.name, price: product.price, quantity: quantity, thumbnail: product.thumbnail, category: product.category.name}`

// CartConfig controls how the server cart payload is normalized.
type CartConfig struct {
	// LineItemsExpr is a JMESPath expression producing an array of flat cart lines.
	LineItemsExpr string `env:"CART_LINE_ITEMS_EXPR"`
}

// Sanitize fills the default expression.
func (c *CartConfig) Sanitize() {
	if strings.TrimSpace(c.LineItemsExpr) == "" {
		c.LineItemsExpr = DefaultLineItemsExpr
	}
}

// Fallback preference sets used when the configured lists are empty. They match the
// envDefault tags below.
var (
	DefaultThemes  = []string{"light", "dark"}
	DefaultLocales = []string{"en", "fr", "de", "es"}
)

// PreferencesConfig restricts the theme and locale choices.
type PreferencesConfig struct {
	Themes        []string `env:"PREFERENCES_THEMES"         envDefault:"light,dark"`
	Locales       []string `env:"PREFERENCES_LOCALES"        envDefault:"en,fr,de,es"`
	DefaultTheme  string   `env:"PREFERENCES_DEFAULT_THEME"  envDefault:"light"`
	DefaultLocale string   `env:"PREFERENCES_DEFAULT_LOCALE" envDefault:"en"`
}

// Sanitize trims entries and makes sure the defaults are members of their sets.
func (c *PreferencesConfig) Sanitize() {
	c.Themes = cleanList(c.Themes, DefaultThemes)
	c.Locales = cleanList(c.Locales, DefaultLocales)
	c.DefaultTheme = strings.ToLower(strings.TrimSpace(c.DefaultTheme))
	if !slices.Contains(c.Themes, c.DefaultTheme) {
		c.DefaultTheme = c.Themes[0]
	}
	c.DefaultLocale = strings.ToLower(strings.TrimSpace(c.DefaultLocale))
	if !slices.Contains(c.Locales, c.DefaultLocale) {
		c.DefaultLocale = c.Locales[0]
	}
}

func cleanList(in []string, fallback []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback...)
	}
	return out
}
