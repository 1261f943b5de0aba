package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/docstore/mem"
)

// flaky fails the first reads with unavailable and can stall writes.
type flaky struct {
	docstore.Store
	failures int
	calls    int
	stall    bool
}

func (f *flaky) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return docstore.Document{}, &docstore.Error{Op: "get", Status: docstore.CodeUnavailable}
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *flaky) Set(ctx context.Context, collection, id string, data docstore.Data) error {
	if f.stall {
		<-ctx.Done()
		return docstore.Wrap("set", docstore.CodeUnavailable, ctx.Err())
	}
	return f.Store.Set(ctx, collection, id, data)
}

func TestBoundedRetriesReadOnce(t *testing.T) {
	ctx := context.Background()
	inner := mem.New()
	defer inner.Close()
	require.NoError(t, inner.Set(ctx, "clubs", "c1", docstore.Data{"name": "x"}))

	f := &flaky{Store: inner, failures: 1}
	s := docstore.NewBounded(f, time.Second)
	d, err := s.Get(ctx, "clubs", "c1")
	require.NoError(t, err)
	assert.Equal(t, "x", d.Data["name"])
	assert.Equal(t, 2, f.calls)

	f = &flaky{Store: inner, failures: 2}
	s = docstore.NewBounded(f, time.Second)
	_, err = s.Get(ctx, "clubs", "c1")
	assert.True(t, errors.Is(err, docstore.ErrUnavailable))
	assert.Equal(t, 2, f.calls)
}

func TestBoundedTimeout(t *testing.T) {
	inner := mem.New()
	defer inner.Close()
	s := docstore.NewBounded(&flaky{Store: inner, stall: true}, 20*time.Millisecond)

	err := s.Set(context.Background(), "clubs", "c1", docstore.Data{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	var coded interface{ Code() string }
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, docstore.CodeDeadlineExceeded, coded.Code())
}

func TestBoundedKeepsTransactor(t *testing.T) {
	inner := mem.New()
	defer inner.Close()
	_, ok := docstore.NewBounded(inner, 0).(docstore.Transactor)
	assert.True(t, ok)
	_, ok = docstore.NewBounded(&flaky{Store: inner}, 0).(docstore.Transactor)
	assert.False(t, ok)
}
