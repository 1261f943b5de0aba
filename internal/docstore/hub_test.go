package docstore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, s *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-s.C():
		require.True(t, ok)
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestHub(t *testing.T) {
	h := NewHub()
	var runs atomic.Int32
	sub := h.Subscribe(context.Background(), "events", func(ctx context.Context) ([]Document, error) {
		n := runs.Add(1)
		return []Document{{ID: string(rune('a' + n - 1))}}, nil
	})

	assert.Equal(t, "a", recv(t, sub).Docs[0].ID)
	assert.Equal(t, 1, h.Len())

	h.Notify("clubs")
	h.Notify("events")
	assert.Equal(t, "b", recv(t, sub).Docs[0].ID)

	sub.Close()
	assert.Equal(t, 0, h.Len())
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestHubCoalesces(t *testing.T) {
	h := NewHub()
	defer h.Close()
	var runs atomic.Int32
	sub := h.Subscribe(context.Background(), "events", func(ctx context.Context) ([]Document, error) {
		runs.Add(1)
		return nil, nil
	})
	recv(t, sub)

	for i := 0; i < 10; i++ {
		h.Notify("events")
	}
	recv(t, sub)
	assert.LessOrEqual(t, runs.Load(), int32(3))
}

func TestHubDeliversErrors(t *testing.T) {
	h := NewHub()
	defer h.Close()
	boom := errors.New("boom")
	sub := h.Subscribe(context.Background(), "events", func(ctx context.Context) ([]Document, error) {
		return nil, boom
	})
	assert.ErrorIs(t, recv(t, sub).Err, boom)
}

func TestHubCloseAll(t *testing.T) {
	h := NewHub()
	run := func(ctx context.Context) ([]Document, error) { return nil, nil }
	s1 := h.Subscribe(context.Background(), "a", run)
	s2 := h.Subscribe(context.Background(), "b", run)
	assert.Equal(t, 2, h.Len())
	h.Close()
	assert.Equal(t, 0, h.Len())
	for _, s := range []*Subscription{s1, s2} {
		for range s.C() {
		}
	}
}
