package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/kin/internal/api"
	"github.com/roach88/kin/internal/model"
)

var (
	// ErrMissingCredentials is returned when login input is blank.
	ErrMissingCredentials = errors.New("identifier and password are required")

	// ErrMissingFields is returned when registration input is blank.
	ErrMissingFields = errors.New("username, email and password are required")
)

// API is the authentication side of the service.
// Implemented by *api.Client.
type API interface {
	Me(ctx context.Context) (model.User, error)
	Login(ctx context.Context, identifier, password string) (model.User, error)
	Register(ctx context.Context, username, email, password string) (model.User, error)
	Logout(ctx context.Context) error
}

// CredentialStore holds the session credential between runs.
// Implemented by *store.Jar.
type CredentialStore interface {
	Clear() error
}

// Shell holds the current session and performs the calls that change it.
//
// Thread-safety: Shell is safe for concurrent use.
type Shell struct {
	api    API
	creds  CredentialStore
	logger *slog.Logger

	mu      sync.RWMutex
	session Session
}

// NewShell creates a Shell in the Unauthenticated state. creds may be nil.
func NewShell(a API, creds CredentialStore, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{api: a, creds: creds, logger: logger}
}

// Session returns the current session.
func (s *Shell) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// User returns the logged-in user or ErrNotAuthenticated.
func (s *Shell) User() (model.User, error) {
	sess := s.Session()
	if !sess.Authenticated() {
		return model.User{}, ErrNotAuthenticated
	}
	return sess.User, nil
}

func (s *Shell) dispatch(e Event) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.session.State
	s.session = Reduce(s.session, e)
	if prev != s.session.State {
		s.logger.Debug("session transition", "from", prev.String(), "to", s.session.State.String())
	}
	return s.session
}

// Bootstrap probes /me once. Any failure yields Unauthenticated.
func (s *Shell) Bootstrap(ctx context.Context) Session {
	u, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug("no existing session", "error", err)
		return s.dispatch(Event{Type: EventProbeFailed})
	}
	return s.dispatch(Event{Type: EventProbeSucceeded, User: u})
}

// Login authenticates with a username or email.
//
// The server may acknowledge a login without returning the account, in
// which case Login probes /me to learn who it is.
func (s *Shell) Login(ctx context.Context, identifier, password string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return model.User{}, ErrMissingCredentials
	}

	u, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		return model.User{}, err
	}
	if u.IsZero() {
		if u, err = s.api.Me(ctx); err != nil {
			return model.User{}, err
		}
	}

	s.dispatch(Event{Type: EventLoginSucceeded, User: u})
	s.logger.Info("logged in", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Register creates an account and then logs in with it.
func (s *Shell) Register(ctx context.Context, username, email, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return model.User{}, ErrMissingFields
	}

	if _, err := s.api.Register(ctx, username, email, password); err != nil {
		return model.User{}, err
	}
	return s.Login(ctx, username, password)
}

// Logout ends the session locally and on the server. Local state is
// cleared even if the server call fails; an auth failure means the server
// session was already gone and is not reported.
func (s *Shell) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.clearCredentials()
	s.dispatch(Event{Type: EventLoggedOut})

	if err != nil && !api.IsAuth(err) {
		return err
	}
	return nil
}

// Observe inspects the result of any call. An authentication failure
// drops the session and stored credentials; Observe then returns true.
func (s *Shell) Observe(err error) bool {
	if !api.IsAuth(err) {
		return false
	}
	s.logger.Info("session expired")
	s.clearCredentials()
	s.dispatch(Event{Type: EventAuthFailed})
	return true
}

func (s *Shell) clearCredentials() {
	if s.creds == nil {
		return
	}
	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("failed to clear stored credentials", "error", err)
	}
}
