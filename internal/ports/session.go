package ports

import (
	"context"

	"golang.org/x/oauth2"
)

// SessionHooks is what the API client needs from the session: the current bearer token,
// a way to refresh it after a 401, and a way to force logout when that fails.
type SessionHooks interface {
	// Token returns the current credential; a nil token or empty AccessToken means anonymous.
	Token() (*oauth2.Token, error)
	// RefreshToken exchanges the refresh credential for a new pair. It reports failure
	// without logging out.
	RefreshToken(ctx context.Context) (*oauth2.Token, error)
	// Logout clears the session unconditionally.
	Logout(ctx context.Context) error
}
