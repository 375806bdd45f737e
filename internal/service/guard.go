package service

import "github.com/target/storefront-go/internal/domain/auth"

// Decision is the outcome of a route guard.
type Decision int

const (
	// DecisionPending means the session is not resolved yet; render nothing and wait.
	DecisionPending Decision = iota
	// DecisionAllow lets the view render.
	DecisionAllow
	// DecisionRedirect sends the user to GuardResult.Location.
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	default:
		return "pending"
	}
}

// GuardResult is a guard decision plus the redirect target when there is one.
type GuardResult struct {
	Decision Decision
	Location string
}

// Guard gates views on session state. It is a pure function of the snapshot.
type Guard struct {
	LoginPath string
	HomePath  string
}

// NewGuard returns a Guard redirecting to /login and /.
func NewGuard() Guard {
	return Guard{LoginPath: "/login", HomePath: "/"}
}

// RequireAuth waits for hydration, then requires an access token.
func (g Guard) RequireAuth(s auth.Session) GuardResult {
	if !s.Hydrated {
		return GuardResult{Decision: DecisionPending}
	}
	if !s.IsAuthenticated() {
		return GuardResult{Decision: DecisionRedirect, Location: g.LoginPath}
	}
	return GuardResult{Decision: DecisionAllow}
}

// RequireStaff additionally waits for the staff flag and redirects non-staff home.
func (g Guard) RequireStaff(s auth.Session) GuardResult {
	if res := g.RequireAuth(s); res.Decision != DecisionAllow {
		return res
	}
	switch s.Staff {
	case auth.StaffYes:
		return GuardResult{Decision: DecisionAllow}
	case auth.StaffNo:
		return GuardResult{Decision: DecisionRedirect, Location: g.HomePath}
	default:
		return GuardResult{Decision: DecisionPending}
	}
}

// RequireGuest is used by the login and register views: an authenticated user is sent home.
func (g Guard) RequireGuest(s auth.Session) GuardResult {
	if !s.Hydrated {
		return GuardResult{Decision: DecisionPending}
	}
	if s.IsAuthenticated() {
		return GuardResult{Decision: DecisionRedirect, Location: g.HomePath}
	}
	return GuardResult{Decision: DecisionAllow}
}
