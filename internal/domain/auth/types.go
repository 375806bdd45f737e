package auth

// Package auth contains domain-level types for the client-side session lifecycle.
// It is pure and free of transport/storage concerns.

import "strings"

// User is the profile record cached alongside the session.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	IsActive       bool   `json:"is_active"`
	IsStaff        bool   `json:"is_staff"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// SynthesizeUser builds the minimal profile used when the profile endpoint is unreachable
// right after a successful credential exchange. The username is the email's local part.
func SynthesizeUser(email string) User {
	username := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		username = email[:i]
	}
	return User{
		Email:    email,
		Username: username,
		IsActive: true,
	}
}

// StaffStatus is a tri-state flag: unknown until the staff-check endpoint answers.
type StaffStatus int

const (
	StaffUnknown StaffStatus = iota
	StaffYes
	StaffNo
)

// Known reports whether the status has been resolved.
func (s StaffStatus) Known() bool { return s != StaffUnknown }

// Bool returns true only for StaffYes.
func (s StaffStatus) Bool() bool { return s == StaffYes }

func (s StaffStatus) String() string {
	switch s {
	case StaffYes:
		return "staff"
	case StaffNo:
		return "not-staff"
	default:
		return "unknown"
	}
}

// StaffStatusFromBool converts a resolved flag.
func StaffStatusFromBool(b bool) StaffStatus {
	if b {
		return StaffYes
	}
	return StaffNo
}

// Phase is the session-level state machine position.
//
//	Unknown → Hydrating → {Authenticated, Anonymous}
//	Authenticated → Anonymous (logout or refresh failure)
//	Anonymous → Authenticated (login)
type Phase string

const (
	PhaseUnknown       Phase = "unknown"
	PhaseHydrating     Phase = "hydrating"
	PhaseAuthenticated Phase = "authenticated"
	PhaseAnonymous     Phase = "anonymous"
)

// Session is an immutable snapshot of the client session.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
	Hydrated     bool
	Staff        StaffStatus
	Error        string
	Phase        Phase
}

// IsAuthenticated is derived from the access token and never stored on its own.
func (s Session) IsAuthenticated() bool { return s.AccessToken != "" }

// Clone returns a deep copy safe to hand to subscribers.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// TokenPair is the credential-exchange response body.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
