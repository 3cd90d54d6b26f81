// Package session is the single source of truth for whether a browser tab is
// signed in, and as whom.
//
// A Store is created per browser session and is the only writer of that
// session's token and identity keys. Login, Logout and RestoreSession are its
// only mutations, and its only I/O is the durable key-value store; it never
// talks to the network.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/jrsteele09/claims-web/storage"
	"github.com/jrsteele09/claims-web/token"
	"github.com/rs/zerolog/log"
)

// State is the authentication triple of one browser session
type State struct {
	Identity      *token.Identity `json:"identity"`
	Token         string          `json:"-"`
	Authenticated bool            `json:"authenticated"`
}

func (s State) equal(other State) bool {
	return s.Token == other.Token && s.Authenticated == other.Authenticated && (s.Identity == nil) == (other.Identity == nil)
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now, used for the expiry check at restoration
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store holds the session state of one browser session
type Store struct {
	// opMu serializes Login, Logout and RestoreSession, storage I/O included,
	// so state and durable storage change together
	opMu sync.Mutex

	mu      sync.Mutex
	storage storage.Store
	now     func() time.Time
	state   State

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int
}

// NewStore creates an unauthenticated store over kv. Call RestoreSession before
// the store is consulted for routing decisions.
func NewStore(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		storage:     kv,
		now:         time.Now,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

// IsAuthenticated is the flag the route guards consult
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Authenticated
}

// Subscribe registers fn to be called after every state change. fn runs
// inside the mutation that caused the change and must not call Login, Logout
// or RestoreSession. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// Login decodes rawToken and, on success, persists it with the identity
// snapshot and marks the session authenticated. On decode failure the
// persisted session is cleared and an error wrapping ErrLoginFailed is
// returned; the store is left in the unauthenticated state.
func (s *Store) Login(ctx context.Context, rawToken string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	identity, err := token.Decode(rawToken)
	if err != nil {
		log.Err(err).Msg("[Session Login] failed to decode token")
		s.reset(ctx)
		return fmt.Errorf("%w: %w", apperrors.ErrLoginFailed, err)
	}

	if err := s.persist(ctx, rawToken, identity); err != nil {
		log.Err(err).Msg("[Session Login] failed to persist session")
		s.reset(ctx)
		return fmt.Errorf("%w: %w", apperrors.ErrLoginFailed, err)
	}

	s.apply(State{Identity: &identity, Token: rawToken, Authenticated: true})
	log.Info().Str("sub", identity.Sub).Msg("[Session Login] session established")
	return nil
}

// Logout clears the persisted session and resets the state. Calling it on a
// signed out store is a no-op with the same result.
func (s *Store) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := storage.ClearSession(ctx, s.storage)
	if s.apply(State{}) {
		log.Info().Msg("[Session Logout] logged out")
	}
	if err != nil {
		return fmt.Errorf("[Session Logout] %w", err)
	}
	return nil
}

// RestoreSession rebuilds the state from durable storage. An absent token
// leaves the store unauthenticated. A token that cannot be decoded, or whose
// exp is strictly before now, is cleared from storage without surfacing an
// error. A token without exp is treated as non-expiring.
//
// A sealed value that no longer opens, e.g. after the storage key changed,
// is cleared the same way. Only storage I/O failures are returned.
func (s *Store) RestoreSession(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	rawToken, ok, err := s.storage.Get(ctx, storage.TokenKey)
	if errors.Is(err, storage.ErrCorruptValue) {
		log.Warn().Err(err).Msg("[Session RestoreSession] unreadable token in storage")
		s.reset(ctx)
		return nil
	}
	if err != nil {
		s.apply(State{})
		return fmt.Errorf("[Session RestoreSession] %w", err)
	}
	if !ok || rawToken == "" {
		s.apply(State{})
		return nil
	}

	identity, err := token.Decode(rawToken)
	if err != nil {
		log.Warn().Err(err).Msg("[Session RestoreSession] corrupt token in storage")
		s.reset(ctx)
		return nil
	}

	if identity.ExpiredAt(s.now()) {
		log.Warn().Str("sub", identity.Sub).Msg("[Session RestoreSession] token expired during restoration")
		s.reset(ctx)
		return nil
	}

	// Refresh the snapshot so the two keys are always written together
	if err := s.writeIdentity(ctx, identity); err != nil {
		log.Err(err).Msg("[Session RestoreSession] failed to refresh identity snapshot")
	}

	s.apply(State{Identity: &identity, Token: rawToken, Authenticated: true})
	return nil
}

// Sync re-reads durable storage after another component, such as the API
// gateway on a 401, changed it behind the store's back.
func (s *Store) Sync(ctx context.Context) error {
	return s.RestoreSession(ctx)
}

func (s *Store) persist(ctx context.Context, rawToken string, identity token.Identity) error {
	if err := s.storage.Set(ctx, storage.TokenKey, rawToken); err != nil {
		return err
	}
	return s.writeIdentity(ctx, identity)
}

func (s *Store) writeIdentity(ctx context.Context, identity token.Identity) error {
	snapshot, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, storage.IdentityKey, string(snapshot))
}

// reset clears storage and state. Storage errors are logged, the in-memory
// state is reset regardless.
func (s *Store) reset(ctx context.Context) {
	if err := storage.ClearSession(ctx, s.storage); err != nil {
		log.Err(err).Msg("[Session reset] failed to clear storage")
	}
	s.apply(State{})
}

// apply swaps in next and notifies subscribers when something changed
func (s *Store) apply(next State) bool {
	s.mu.Lock()
	changed := !s.state.equal(next)
	s.state = next
	snapshot := s.copyState()
	s.mu.Unlock()

	if changed {
		s.notify(snapshot)
	}
	return changed
}

func (s *Store) notify(state State) {
	s.subMu.Lock()
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

// copyState must be called with mu held
func (s *Store) copyState() State {
	state := s.state
	if state.Identity != nil {
		identity := *state.Identity
		state.Identity = &identity
	}
	return state
}
