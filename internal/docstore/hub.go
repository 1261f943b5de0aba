package docstore

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Snapshot is the full result of a live query at one point in time. A
// consumer replaces its view with each snapshot rather than merging.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Subscription delivers snapshots of one live query in the order they are
// produced. Pending change notifications are coalesced, so a slow consumer
// sees the latest state rather than every intermediate one.
type Subscription struct {
	c      chan Snapshot
	notify chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	detach func()
}

// C is closed once the subscription ends.
func (s *Subscription) C() <-chan Snapshot {
	return s.c
}

// Close stops the subscription and waits for its goroutine. Safe to call
// more than once and from any goroutine.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		if s.detach != nil {
			s.detach()
		}
	})
}

func (s *Subscription) poke() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) loop(ctx context.Context, run Runner) {
	defer close(s.done)
	defer close(s.c)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		}
		docs, err := run(ctx)
		if ctx.Err() != nil {
			return
		}
		select {
		case s.c <- Snapshot{Docs: docs, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// Runner re-executes the subscribed query.
type Runner func(ctx context.Context) ([]Document, error)

// Hub fans change notifications for a collection out to its live queries.
type Hub struct {
	mu   sync.Mutex
	subs map[string]mapset.Set[*Subscription]
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]mapset.Set[*Subscription]),
	}
}

// Subscribe registers a live query on collection and schedules its first snapshot.
func (h *Hub) Subscribe(ctx context.Context, collection string, run Runner) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		c:      make(chan Snapshot),
		notify: make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.detach = func() {
		h.remove(collection, s)
	}

	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = mapset.NewThreadUnsafeSet[*Subscription]()
	}
	h.subs[collection].Add(s)
	h.mu.Unlock()

	s.poke()
	go s.loop(ctx, run)
	return s
}

func (h *Hub) remove(collection string, s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[collection] == nil {
		return
	}
	h.subs[collection].Remove(s)
	if h.subs[collection].Cardinality() == 0 {
		delete(h.subs, collection)
	}
}

// Notify tells every live query on collection that its data changed.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	var subs []*Subscription
	if h.subs[collection] != nil {
		subs = h.subs[collection].ToSlice()
	}
	h.mu.Unlock()
	for _, s := range subs {
		s.poke()
	}
}

// Len returns the number of open live queries.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subs {
		n += set.Cardinality()
	}
	return n
}

// Close ends every live query.
func (h *Hub) Close() {
	h.mu.Lock()
	var subs []*Subscription
	for _, set := range h.subs {
		subs = append(subs, set.ToSlice()...)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}
