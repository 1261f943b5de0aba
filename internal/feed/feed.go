// Package feed joins the live event list with the saved and registered ids
// of the current user into the views screens read.
package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/domain"
	"github.com/goserg/clubconnect/internal/event"
)

// IDSource is the saved and registered id sets the feed joins against.
type IDSource interface {
	SavedIDs() []string
	RegisteredIDs() []string
	OnChange(fn func()) (unsubscribe func())
}

type Feed struct {
	events *event.Repository
	ids    IDSource
	log    *logrus.Entry
	now    func() time.Time

	mu         sync.RWMutex
	all        []domain.Event
	byID       map[string]domain.Event
	saved      []domain.Event
	registered []domain.Event
	err        error

	ready     chan struct{}
	readyOnce sync.Once

	notifyMu  sync.Mutex
	listeners map[int]func()
	nextID    int

	sub         *docstore.Subscription
	done        chan struct{}
	unsubscribe func()
}

func New(l *logrus.Logger, events *event.Repository, ids IDSource) *Feed {
	return &Feed{
		events:     events,
		ids:        ids,
		log:        l.WithFields(map[string]interface{}{"from": "feed"}),
		now:        time.Now,
		all:        []domain.Event{},
		byID:       map[string]domain.Event{},
		saved:      []domain.Event{},
		registered: []domain.Event{},
		ready:      make(chan struct{}),
		listeners:  make(map[int]func()),
	}
}

// Start subscribes to all events and to id changes. Close releases both.
func (f *Feed) Start(ctx context.Context) error {
	sub, err := f.events.Watch(ctx, event.Filters{})
	if err != nil {
		return err
	}
	unsubscribe := f.ids.OnChange(f.rejoin)
	done := make(chan struct{})

	f.mu.Lock()
	f.sub = sub
	f.done = done
	f.unsubscribe = unsubscribe
	f.mu.Unlock()

	go f.loop(sub, done)
	return nil
}

func (f *Feed) loop(sub *docstore.Subscription, done chan struct{}) {
	defer close(done)
	for snap := range sub.C() {
		if snap.Err != nil {
			err := apperr.From(snap.Err, "Failed to load events.")
			f.log.WithError(snap.Err).Warn("event snapshot failed")
			f.mu.Lock()
			f.err = err
			f.mu.Unlock()
		} else {
			f.replace(f.events.DecodeAll(snap.Docs))
		}
		f.readyOnce.Do(func() { close(f.ready) })
		f.notify()
	}
}

// replace swaps in a new event list and rebuilds the joins.
func (f *Feed) replace(events []domain.Event) {
	byID := make(map[string]domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	saved, registered := f.ids.SavedIDs(), f.ids.RegisteredIDs()
	f.all = events
	f.byID = byID
	f.err = nil
	f.saved = join(byID, saved)
	f.registered = join(byID, registered)
}

func (f *Feed) rejoin() {
	f.mu.Lock()
	// Read the ids under the lock so a concurrent replace cannot apply
	// older ones after these.
	saved, registered := f.ids.SavedIDs(), f.ids.RegisteredIDs()
	f.saved = join(f.byID, saved)
	f.registered = join(f.byID, registered)
	f.mu.Unlock()
	f.notify()
}

// join looks ids up in byID in order. Ids with no event are dropped.
func join(byID map[string]domain.Event, ids []string) []domain.Event {
	out := make([]domain.Event, 0, len(ids))
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, id := range ids {
		e, ok := byID[id]
		if !ok || !seen.Add(id) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// WaitReady blocks until the first event snapshot has been applied.
func (f *Feed) WaitReady(ctx context.Context) error {
	select {
	case <-f.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) Close() {
	f.mu.Lock()
	sub, done, unsubscribe := f.sub, f.done, f.unsubscribe
	f.sub, f.done, f.unsubscribe = nil, nil, nil
	f.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	if sub != nil {
		sub.Close()
		<-done
	}
}

// All returns every event in ascending date order.
func (f *Feed) All() []domain.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyEvents(f.all)
}

func (f *Feed) Get(id string) (domain.Event, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.byID[id]
	return e, ok
}

// Saved returns the saved events in the order they were saved.
func (f *Feed) Saved() []domain.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyEvents(f.saved)
}

func (f *Feed) Registered() []domain.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyEvents(f.registered)
}

// Upcoming returns events dated today or later, soonest first.
func (f *Feed) Upcoming() []domain.Event {
	now := f.now()
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Event, 0)
	for _, e := range f.all {
		if e.IsUpcoming(now) {
			out = append(out, e)
		}
	}
	return out
}

// Past returns events dated before today, most recent first.
func (f *Feed) Past() []domain.Event {
	now := f.now()
	f.mu.RLock()
	out := make([]domain.Event, 0)
	for _, e := range f.all {
		if !e.IsUpcoming(now) {
			out = append(out, e)
		}
	}
	f.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Compare(out[j].Date) > 0
	})
	return out
}

func (f *Feed) ByClub(clubID string) []domain.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Event, 0)
	for _, e := range f.all {
		if e.ClubID == clubID {
			out = append(out, e)
		}
	}
	return out
}

// Err returns the error of the latest event snapshot, if it failed. The
// previous events are kept until a snapshot succeeds.
func (f *Feed) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err
}

// OnChange calls fn after every recomputation. Calls are serialized.
func (f *Feed) OnChange(fn func()) func() {
	f.notifyMu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.notifyMu.Lock()
			delete(f.listeners, id)
			f.notifyMu.Unlock()
		})
	}
}

func (f *Feed) notify() {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	for _, fn := range f.listeners {
		fn()
	}
}

func copyEvents(events []domain.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	copy(out, events)
	return out
}
