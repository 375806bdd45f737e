package config

import (
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "http://localhost:8000"
	defaultAPITimeout = 15 * time.Second
)

// APIConfig describes the remote storefront API.
type APIConfig struct {
	// BaseURL is the REST root, e.g. "https://shop.example.com".
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000"`

	// WSBaseURL is the WebSocket root. Derived from BaseURL (http→ws, https→wss) when empty.
	WSBaseURL string `env:"WS_BASE_URL"`

	// Timeout is the fixed per-request timeout.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`

	// UserAgent is sent on every request.
	UserAgent string `env:"API_USER_AGENT" envDefault:"storefront-go"`
}

// Sanitize applies guardrails to API configuration values.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultAPITimeout
	}
	c.WSBaseURL = strings.TrimRight(strings.TrimSpace(c.WSBaseURL), "/")
	if c.WSBaseURL == "" {
		c.WSBaseURL = deriveWSBase(c.BaseURL)
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = "storefront-go"
	}
}

func deriveWSBase(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String()
}
