// Package saved keeps the saved and registered event ids of whoever is
// using the client. Guests keep saved ids in local storage. Signed-in users
// keep both lists on their profile.
package saved

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/kvstore"
	"github.com/goserg/clubconnect/internal/session"
	"github.com/goserg/clubconnect/internal/user"
	"github.com/goserg/clubconnect/internal/validate"
)

// Key is the local storage key of the guest payload.
const Key = "savedEvents"

const payloadVersion = 1

const (
	msgSignInToSave     = "Please sign in to save events."
	msgSignInToRegister = "Please sign in to register for events."
)

type payload struct {
	Version  int      `json:"version"`
	EventIDs []string `json:"eventIds"`
}

// Registrar performs event registrations for a user.
type Registrar interface {
	Register(ctx context.Context, eventID, userID string) error
	Unregister(ctx context.Context, eventID, userID string) error
}

type Config struct {
	// RequireSignIn turns guest saving off.
	RequireSignIn bool
}

type Cache struct {
	kv     kvstore.Store
	users  *user.Repository
	events Registrar
	cfg    Config
	log    *logrus.Entry

	// follow serializes session deliveries.
	follow sync.Mutex

	mu         sync.RWMutex
	ctx        context.Context
	userID     string
	saved      []string
	registered []string
	watch      *docstore.Subscription
	watchDone  chan struct{}

	notifyMu  sync.Mutex
	listeners map[int]func()
	nextID    int

	unsubscribe func()
}

func New(l *logrus.Logger, kv kvstore.Store, users *user.Repository, events Registrar, cfg Config) *Cache {
	return &Cache{
		kv:        kv,
		users:     users,
		events:    events,
		cfg:       cfg,
		log:       l.WithFields(map[string]interface{}{"from": "saved-cache"}),
		saved:     []string{},
		listeners: make(map[int]func()),
	}
}

// Start loads the guest payload and begins following sess.
func (c *Cache) Start(ctx context.Context, sess *session.Session) error {
	ids, err := c.loadGuest(ctx)
	if err != nil {
		return apperr.From(err, "Failed to load saved events.")
	}
	c.mu.Lock()
	c.ctx = ctx
	c.saved = ids
	c.mu.Unlock()

	unsubscribe := sess.OnChange(c.onSession)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	c.onSession(sess.Snapshot())
	return nil
}

// Close stops following the session and the profile.
func (c *Cache) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	c.follow.Lock()
	c.stopWatch()
	c.follow.Unlock()
}

func (c *Cache) onSession(snap session.Snapshot) {
	c.follow.Lock()
	defer c.follow.Unlock()

	c.mu.RLock()
	current := c.userID
	c.mu.RUnlock()

	switch {
	case snap.State == session.Authenticated && snap.User != nil:
		if snap.User.ID != current {
			if current != "" {
				c.signOut()
			}
			c.signIn(*snap.User)
		}
	case snap.State == session.Anonymous:
		if current != "" {
			c.signOut()
		}
	}
}

// signIn moves guest saves onto the profile and starts following it.
func (c *Cache) signIn(u domain.User) {
	c.mu.RLock()
	ctx := c.ctx
	guest := append([]string(nil), c.saved...)
	c.mu.RUnlock()
	log := c.log.WithField("user", u.ID)

	saved := u.SavedEventIDs
	if len(guest) > 0 {
		if err := c.users.SaveEvents(ctx, u.ID, guest...); err != nil {
			log.WithError(err).Warn("guest saves not merged")
		} else {
			saved = domain.MergeIDs(saved, guest)
			if err := c.kv.Delete(ctx, Key); err != nil {
				log.WithError(err).Warn("guest payload not cleared")
			}
			log.WithField("count", len(guest)).Info("guest saves merged")
		}
	}

	c.mu.Lock()
	c.userID = u.ID
	c.saved = copyIDs(saved)
	c.registered = copyIDs(u.RegisteredEventIDs)
	c.mu.Unlock()
	c.notify()

	sub, err := c.users.Watch(ctx, u.ID)
	if err != nil {
		log.WithError(err).Warn("profile not followed")
		return
	}
	done := make(chan struct{})
	c.mu.Lock()
	c.watch = sub
	c.watchDone = done
	c.mu.Unlock()
	go c.followProfile(u.ID, sub, done)
}

func (c *Cache) followProfile(userID string, sub *docstore.Subscription, done chan struct{}) {
	defer close(done)
	for snap := range sub.C() {
		if snap.Err != nil {
			c.log.WithError(snap.Err).WithField("user", userID).Warn("profile snapshot failed")
			continue
		}
		if len(snap.Docs) == 0 {
			continue
		}
		u, err := user.Decode(snap.Docs[0])
		if err != nil {
			c.log.WithError(err).WithField("user", userID).Warn("profile snapshot malformed")
			continue
		}
		c.mu.Lock()
		if c.userID != userID {
			c.mu.Unlock()
			return
		}
		c.saved = copyIDs(u.SavedEventIDs)
		c.registered = copyIDs(u.RegisteredEventIDs)
		c.mu.Unlock()
		c.notify()
	}
}

func (c *Cache) stopWatch() {
	c.mu.Lock()
	sub, done := c.watch, c.watchDone
	c.watch, c.watchDone = nil, nil
	c.mu.Unlock()
	if sub != nil {
		sub.Close()
		<-done
	}
}

func (c *Cache) signOut() {
	c.stopWatch()
	c.mu.RLock()
	ctx := c.ctx
	c.mu.RUnlock()
	ids, err := c.loadGuest(ctx)
	if err != nil {
		c.log.WithError(err).Warn("guest payload not loaded")
		ids = []string{}
	}
	c.mu.Lock()
	c.userID = ""
	c.saved = ids
	c.registered = nil
	c.mu.Unlock()
	c.notify()
}

// loadGuest reads the guest payload. A payload of another version is
// dropped.
func (c *Cache) loadGuest(ctx context.Context) ([]string, error) {
	raw, ok, err := c.kv.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.log.WithError(err).Error("guest payload unreadable, ignoring it")
		return []string{}, nil
	}
	if p.Version != payloadVersion {
		c.log.WithField("version", p.Version).Error("guest payload version unsupported, ignoring it")
		return []string{}, nil
	}
	return domain.MergeIDs(nil, p.EventIDs), nil
}

func (c *Cache) storeGuest(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(payload{Version: payloadVersion, EventIDs: ids})
	if err != nil {
		return fmt.Errorf("encode saved events: %w", err)
	}
	return c.kv.Set(ctx, Key, string(raw))
}

func (c *Cache) Save(ctx context.Context, eventID string) error {
	return c.editSaved(ctx, eventID, true)
}

func (c *Cache) Remove(ctx context.Context, eventID string) error {
	return c.editSaved(ctx, eventID, false)
}

func (c *Cache) editSaved(ctx context.Context, eventID string, add bool) error {
	if eventID == "" {
		return validate.MissingFields("eventId")
	}
	c.follow.Lock()
	defer c.follow.Unlock()

	c.mu.RLock()
	userID := c.userID
	ids := copyIDs(c.saved)
	c.mu.RUnlock()
	if userID == "" && c.cfg.RequireSignIn {
		return apperr.AuthRequired(msgSignInToSave)
	}

	var changed bool
	if add {
		ids, changed = domain.AddID(ids, eventID)
	} else {
		ids, changed = domain.RemoveID(ids, eventID)
	}
	if !changed {
		return nil
	}

	switch {
	case userID != "":
		var err error
		if add {
			err = c.users.SaveEvents(ctx, userID, eventID)
		} else {
			err = c.users.UnsaveEvent(ctx, userID, eventID)
		}
		if err != nil {
			return err
		}
	default:
		if err := c.storeGuest(ctx, ids); err != nil {
			return apperr.From(err, "Failed to update saved events.")
		}
	}

	c.mu.Lock()
	if c.userID == userID {
		c.saved = ids
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Cache) IsSaved(eventID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mapset.NewThreadUnsafeSet(c.saved...).Contains(eventID)
}

// SavedIDs returns the saved ids in the order they were saved.
func (c *Cache) SavedIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyIDs(c.saved)
}

func (c *Cache) Register(ctx context.Context, eventID string) error {
	return c.editRegistered(ctx, eventID, true)
}

func (c *Cache) Unregister(ctx context.Context, eventID string) error {
	return c.editRegistered(ctx, eventID, false)
}

func (c *Cache) editRegistered(ctx context.Context, eventID string, add bool) error {
	c.mu.RLock()
	userID := c.userID
	c.mu.RUnlock()
	if userID == "" {
		return apperr.AuthRequired(msgSignInToRegister)
	}
	if eventID == "" {
		return validate.MissingFields("eventId")
	}

	var err error
	if add {
		err = c.events.Register(ctx, eventID, userID)
	} else {
		err = c.events.Unregister(ctx, eventID, userID)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.userID == userID {
		if add {
			c.registered, _ = domain.AddID(c.registered, eventID)
		} else {
			c.registered, _ = domain.RemoveID(c.registered, eventID)
		}
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Cache) IsRegistered(eventID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mapset.NewThreadUnsafeSet(c.registered...).Contains(eventID)
}

func (c *Cache) RegisteredIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyIDs(c.registered)
}

// SignedIn reports whether the cache follows a profile.
func (c *Cache) SignedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID != ""
}

// OnChange calls fn after the saved or registered ids change. Calls are
// serialized.
func (c *Cache) OnChange(fn func()) func() {
	c.notifyMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.notifyMu.Lock()
			delete(c.listeners, id)
			c.notifyMu.Unlock()
		})
	}
}

func (c *Cache) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for _, fn := range c.listeners {
		fn()
	}
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
