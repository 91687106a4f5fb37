// Package session owns who the client is logged in as.
//
// Session transitions go through Reduce, a typed state machine:
//
//	Unauthenticated -(LoginSucceeded | ProbeSucceeded)-> Authenticated
//	Authenticated   -(LoggedOut | AuthFailed | ProbeFailed)-> Unauthenticated
//
// Shell drives the machine from network outcomes. A failed bootstrap probe
// is simply "no session", never an error.
package session

import (
	"errors"

	"github.com/roach88/kin/internal/model"
)

// ErrNotAuthenticated is returned by operations that need a session when
// none exists.
var ErrNotAuthenticated = errors.New("not logged in")

// State is the session lifecycle state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is the current authentication state. User is zero unless
// State is Authenticated.
type Session struct {
	State State
	User  model.User
}

// Authenticated reports whether a user is logged in.
func (s Session) Authenticated() bool {
	return s.State == Authenticated
}

// EventType identifies a session transition trigger.
type EventType int

const (
	// EventLoginSucceeded follows a successful login (or register-then-login).
	EventLoginSucceeded EventType = iota + 1
	// EventProbeSucceeded follows a successful "who am I" probe.
	EventProbeSucceeded
	// EventProbeFailed follows any failed probe.
	EventProbeFailed
	// EventLoggedOut follows an explicit logout.
	EventLoggedOut
	// EventAuthFailed follows a 401 on any call.
	EventAuthFailed
)

// Event triggers a transition. User is set for the success events.
type Event struct {
	Type EventType
	User model.User
}

// Reduce returns the session after applying e to s.
//
// Success events without a user identity leave s unchanged.
func Reduce(s Session, e Event) Session {
	switch e.Type {
	case EventLoginSucceeded, EventProbeSucceeded:
		if e.User.IsZero() {
			return s
		}
		return Session{State: Authenticated, User: e.User}
	case EventProbeFailed, EventLoggedOut, EventAuthFailed:
		return Session{State: Unauthenticated}
	default:
		return s
	}
}
