// Package session owns the client's authentication state: whether a bearer
// token is held, mirrored into a single persisted storage slot.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ports/tradeshop/internal/storage"
)

// TokenSlot is the storage key holding the bearer token.
const TokenSlot = "token"

var (
	// ErrEmptyToken is returned by Login when called with "".
	ErrEmptyToken = errors.New("empty token")
	// ErrNotAuthenticated is returned by accessors that need a held token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoUserID is returned when the token carries no readable userId claim.
	ErrNoUserID = errors.New("token has no userId claim")
)

// State is one of the two session states.
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

// Store holds the session token. The token field is the only source of truth
// for IsAuthenticated; the storage slot mirrors it.
type Store struct {
	slots storage.Storage

	once  sync.Once
	mu    sync.RWMutex
	token string
}

// New returns an unauthenticated Store backed by slots. Call Initialize to
// pick up a token persisted by an earlier process.
func New(slots storage.Storage) *Store {
	return &Store{slots: slots}
}

// Initialize probes the persisted slot once. Later calls do nothing.
func (s *Store) Initialize(ctx context.Context) {
	s.once.Do(func() {
		tok, ok, err := s.slots.GetItem(ctx, TokenSlot)
		if err != nil {
			slog.Warn("session: read token slot", "err", err)
			return
		}
		if !ok || tok == "" {
			return
		}
		s.mu.Lock()
		s.token = tok
		s.mu.Unlock()
	})
}

// Login persists token and marks the session authenticated. On a storage
// failure the state is left unchanged.
func (s *Store) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.slots.SetItem(ctx, TokenSlot, token); err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}
	s.token = token
	return nil
}

// Logout clears the slot and the held token. It is a no-op when already
// logged out. The in-memory state always transitions; a storage failure is
// still reported.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := s.slots.RemoveItem(ctx, TokenSlot); err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// State returns the current state.
func (s *Store) State() State {
	if s.IsAuthenticated() {
		return Authenticated
	}
	return Unauthenticated
}

// Token returns the held bearer token.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// UserID extracts the userId claim from the held token. The token is read
// without verification; the server stays the only authority on validity.
func (s *Store) UserID() (string, error) {
	tok, ok := s.Token()
	if !ok {
		return "", ErrNotAuthenticated
	}
	return userIDFromToken(tok)
}

func userIDFromToken(tok string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoUserID, err)
	}
	switch v := claims["userId"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return "", ErrNoUserID
}
