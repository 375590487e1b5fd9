package auction

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrBadPassword is returned when the admin password does not match.
var ErrBadPassword = errors.New("invalid admin password")

// adminSessionTTL is how long an issued admin token stays valid.
const adminSessionTTL = 12 * time.Hour

type sessionSet struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	tokens map[string]time.Time
}

func newSessionSet(clock clockwork.Clock) *sessionSet {
	return &sessionSet{clock: clock, tokens: make(map[string]time.Time)}
}

func (s *sessionSet) issue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.New().String()
	s.tokens[token] = s.clock.Now().Add(adminSessionTTL)
	return token
}

func (s *sessionSet) valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.clock.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

func (s *sessionSet) revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Login checks the admin password and issues a session token. The admin
// mode flag is persisted so the board comes back up in admin view.
func (a *App) Login(ctx context.Context, password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.adminPassword)) != 1 {
		return "", ErrBadPassword
	}
	token := a.sessions.issue()
	if err := a.store.SetAdminMode(ctx, true); err != nil {
		log.Error().Err(err).Msg("failed to persist admin mode")
	}
	log.Info().Msg("admin session opened")
	return token, nil
}

// Logout revokes a session token and clears the persisted admin flag.
func (a *App) Logout(ctx context.Context, token string) error {
	a.sessions.revoke(token)
	return a.store.SetAdminMode(ctx, false)
}

// ValidToken reports whether a token names a live admin session.
func (a *App) ValidToken(token string) bool {
	return a.sessions.valid(token)
}
