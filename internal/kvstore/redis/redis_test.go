package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/kvstore/kvtest"
)

func setupTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := New(context.Background(), Config{Addr: mr.Addr(), Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStore(t *testing.T) {
	s, _ := setupTestStore(t, "")
	kvtest.Run(t, s)
}

func TestPrefix(t *testing.T) {
	s, mr := setupTestStore(t, "clubconnect:")
	require.NoError(t, s.Set(context.Background(), "session", "token"))

	v, err := mr.Get("clubconnect:session")
	require.NoError(t, err)
	assert.Equal(t, "token", v)
	assert.False(t, mr.Exists("session"))
}

func TestNewUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = New(context.Background(), Config{Addr: addr})
	assert.Error(t, err)
}

func TestGetServerError(t *testing.T) {
	s, mr := setupTestStore(t, "")
	mr.SetError("LOADING")
	_, _, err := s.Get(context.Background(), "session")
	assert.Error(t, err)
}
