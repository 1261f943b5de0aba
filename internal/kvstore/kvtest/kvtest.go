// Package kvtest checks the behaviour shared by every kvstore.Store.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/kvstore"
)

func Run(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "savedEvents")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "savedEvents", `{"version":1,"eventIds":["e1"]}`))
	v, ok, err := s.Get(ctx, "savedEvents")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"version":1,"eventIds":["e1"]}`, v)

	require.NoError(t, s.Set(ctx, "savedEvents", ""))
	v, ok, err = s.Get(ctx, "savedEvents")
	require.NoError(t, err)
	assert.True(t, ok, "empty values are still present")
	assert.Empty(t, v)

	require.NoError(t, s.Set(ctx, "session", "token"))
	require.NoError(t, s.Delete(ctx, "savedEvents"))
	_, ok, err = s.Get(ctx, "savedEvents")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = s.Get(ctx, "session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "token", v)

	require.NoError(t, s.Delete(ctx, "never-set"))
}
