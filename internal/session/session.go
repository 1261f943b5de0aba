// Package session tracks who is signed in. It follows the identity
// provider's sign-in and sign-out deliveries and keeps the matching profile.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/identity"
	"github.com/goserg/clubconnect/internal/user"
)

type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "uninitialized"
}

const DefaultErrorTTL = 5 * time.Second

const (
	msgSignIn          = "Please sign in to continue."
	msgProfileDegraded = "We couldn't load your profile. Some features may be unavailable."
)

// Snapshot is the observable state of a session.
type Snapshot struct {
	State State
	// User is set only when State is Authenticated.
	User *domain.User
	// Degraded means User was built from identity fields alone because the
	// profile could not be read.
	Degraded bool
	Err      error
}

type Config struct {
	// ErrorTTL is how long a surfaced error stays visible. Zero means
	// DefaultErrorTTL.
	ErrorTTL time.Duration
}

type Session struct {
	provider identity.Provider
	users    *user.Repository
	log      *logrus.Entry
	errTTL   time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	ctx      context.Context
	state    State
	user     *domain.User
	degraded bool
	err      error
	errTimer *time.Timer
	pending  map[string]RegisterFields

	ready     chan struct{}
	readyOnce sync.Once

	notifyMu    sync.Mutex
	listeners   map[int]func(Snapshot)
	nextID      int
	unsubscribe func()
}

func New(l *logrus.Logger, provider identity.Provider, users *user.Repository, cfg Config) *Session {
	ttl := cfg.ErrorTTL
	if ttl <= 0 {
		ttl = DefaultErrorTTL
	}
	return &Session{
		provider:  provider,
		users:     users,
		log:       l.WithFields(map[string]interface{}{"from": "session"}),
		errTTL:    ttl,
		now:       time.Now,
		pending:   make(map[string]RegisterFields),
		ready:     make(chan struct{}),
		listeners: make(map[int]func(Snapshot)),
	}
}

// Start moves to Loading and begins following the identity provider. ctx
// bounds the profile reads made on each delivery.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return
	}
	s.ctx = ctx
	s.state = Loading
	s.mu.Unlock()
	s.notify()

	unsubscribe := s.provider.Subscribe(s.handle)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Close stops following the provider and drops any pending error timer.
func (s *Session) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// WaitReady blocks until the first delivery has been handled.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Degraded: s.degraded, Err: s.err}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in profile, or nil.
func (s *Session) User() *domain.User {
	return s.Snapshot().User
}

// OnChange calls fn after every transition, profile refresh and error
// change. Calls are serialized. The returned func unsubscribes.
func (s *Session) OnChange(fn func(Snapshot)) func() {
	s.notifyMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.listeners, id)
			s.notifyMu.Unlock()
		})
	}
}

func (s *Session) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

// handle is the identity listener. Each delivery is one transition.
func (s *Session) handle(id *identity.Identity) {
	defer s.readyOnce.Do(func() { close(s.ready) })

	if id == nil {
		s.mu.Lock()
		s.state = Anonymous
		s.user = nil
		s.degraded = false
		s.mu.Unlock()
		s.log.Debug("signed out")
		s.notify()
		return
	}

	s.mu.RLock()
	ctx := s.ctx
	fields, hasFields := s.pending[id.Email]
	s.mu.RUnlock()

	u, err := s.loadProfile(ctx, *id, fields, hasFields)
	s.mu.Lock()
	s.state = Authenticated
	s.user = &u
	s.degraded = err != nil
	s.mu.Unlock()
	if err != nil {
		s.surface(apperr.DataAccess(msgProfileDegraded, err))
	}
	s.log.WithField("user", id.ID).Debug("signed in")
	s.notify()
}

// loadProfile returns the stored profile, creating it on first sign-in. On
// failure it returns a profile built from the identity alone.
func (s *Session) loadProfile(ctx context.Context, id identity.Identity, fields RegisterFields, hasFields bool) (domain.User, error) {
	u, err := s.users.Get(ctx, id.ID)
	if err == nil {
		u.EmailVerified = id.EmailVerified
		return u, nil
	}
	bare := fromIdentity(id)
	if !errors.Is(err, apperr.ErrNotFound) {
		return bare, err
	}
	if hasFields {
		bare.FullName = fields.FullName
		bare.RollNo = fields.RollNo
	}
	created, err := s.users.Create(ctx, bare)
	if err != nil {
		return bare, err
	}
	return created, nil
}

func fromIdentity(id identity.Identity) domain.User {
	return domain.User{
		ID:                 id.ID,
		Email:              id.Email,
		DisplayName:        id.DisplayName,
		EmailVerified:      id.EmailVerified,
		Role:               domain.RoleStudent,
		SavedEventIDs:      []string{},
		RegisteredEventIDs: []string{},
	}
}

// Refresh rereads the profile of the signed-in user.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.RLock()
	var id string
	if s.user != nil {
		id = s.user.ID
	}
	s.mu.RUnlock()
	if id == "" {
		return
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		s.log.WithError(err).Warn("profile refresh failed")
		return
	}
	s.mu.Lock()
	if s.user == nil || s.user.ID != id {
		s.mu.Unlock()
		return
	}
	u.EmailVerified = s.user.EmailVerified
	s.user = &u
	s.degraded = false
	s.mu.Unlock()
	s.notify()
}

// Err returns the surfaced error, if it has not been cleared yet.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) ClearError() {
	s.mu.Lock()
	if s.err == nil {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Session) clearLocked() {
	s.err = nil
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
}

// surface logs err once and shows it until ClearError or until the TTL
// passes, whichever comes first.
func (s *Session) surface(err error) {
	log := s.log
	if cause := errors.Unwrap(err); cause != nil {
		log = log.WithError(cause)
	}
	log.Warn(err.Error())

	s.mu.Lock()
	s.clearLocked()
	s.err = err
	var t *time.Timer
	t = time.AfterFunc(s.errTTL, func() {
		s.mu.Lock()
		if s.errTimer != t {
			s.mu.Unlock()
			return
		}
		s.err = nil
		s.errTimer = nil
		s.mu.Unlock()
		s.notify()
	})
	s.errTimer = t
	s.mu.Unlock()
	s.notify()
}

// fail maps err into the taxonomy, surfaces it and returns it.
func (s *Session) fail(err error, fallback string) error {
	mapped := apperr.From(err, fallback)
	s.surface(mapped)
	return mapped
}

func (s *Session) signedInID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.user == nil {
		return "", apperr.AuthRequired(msgSignIn)
	}
	return s.user.ID, nil
}
