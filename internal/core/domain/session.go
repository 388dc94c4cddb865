package domain

import "errors"

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrSessionExpired = errors.New("session expired")
var ErrOperationInFlight = errors.New("authentication operation already in flight")

// SessionState is the lifecycle position of the one session this process owns.
type SessionState int

const (
	// SessionUnauthenticated means no user is signed in.
	SessionUnauthenticated SessionState = iota
	// SessionRestoring means the startup check against persisted state is
	// still in flight; navigation decisions must be deferred, not denied.
	SessionRestoring
	// SessionAuthenticated means a validated user is signed in.
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionRestoring:
		return "restoring"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the observable snapshot handed to the guard and the views.
// IsAuthenticated is exactly CurrentUser != nil.
type Session struct {
	CurrentUser     *User `json:"current_user"`
	Loading         bool  `json:"loading"`
	IsAuthenticated bool  `json:"is_authenticated"`
}
