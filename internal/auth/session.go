package auth

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/logging"
)

// TokenKey is the fixed key the session token is stored under.
const TokenKey = "token"

var _ interfaces.SessionGate = (*Session)(nil)

// Session decides whether the user is logged in. It is created once by the
// composition root and handed to every screen that needs it.
type Session struct {
	mu      sync.RWMutex
	store   interfaces.TokenStore
	backend string
	token   string
	active  bool
	logger  *logging.Logger
}

// NewSession wraps store. backend names the store in logs.
func NewSession(store interfaces.TokenStore, backend string) *Session {
	return &Session{
		store:   store,
		backend: backend,
		logger:  logging.GetAuthLogger(),
	}
}

// WithLogger replaces the session logger.
func (s *Session) WithLogger(logger *logging.Logger) *Session {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CheckSession reports whether a token is stored and adopts it. A store
// failure counts as no session.
func (s *Session) CheckSession(ctx context.Context) bool {
	s.logger.LogAuthOperation("check", s.backend)

	token, err := s.store.Retrieve(ctx, TokenKey)
	if err != nil || token == "" {
		if err != nil && !apperrors.Is(err, ErrNotFound) {
			s.logger.Warn("Failed to read stored token", "error", err.Error())
		}
		s.set("", false)
		return false
	}

	s.set(token, true)
	return true
}

// Establish persists token and activates the session. On failure the
// session stays as it was.
func (s *Session) Establish(ctx context.Context, token string) error {
	s.logger.LogAuthOperation("establish", s.backend)

	if strings.TrimSpace(token) == "" {
		return &apperrors.InputFault{Field: "token", Message: "No session token was received."}
	}

	if err := s.store.Store(ctx, TokenKey, token); err != nil {
		s.logger.Error("Failed to persist token", "error", err.Error())
		return &apperrors.LocalFault{Message: "Could not save your session. Please try again.", Err: err}
	}

	s.set(token, true)
	s.logger.LogSessionChange(true, "established")
	return nil
}

// End removes the stored token. The session becomes inactive even when the
// removal fails.
func (s *Session) End(ctx context.Context) {
	s.logger.LogAuthOperation("end", s.backend)

	if err := s.store.Delete(ctx, TokenKey); err != nil {
		s.logger.Error("Failed to remove stored token", "error", err.Error())
	}

	s.set("", false)
	s.logger.LogSessionChange(false, "ended")
}

func (s *Session) set(token string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.active = active
}

// Active reports the in-memory session state.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Token returns the active token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subject returns the user name carried by the token, if any.
func (s *Session) Subject() string {
	token := s.Token()
	if token == "" {
		return ""
	}
	return InspectToken(token).Subject
}
