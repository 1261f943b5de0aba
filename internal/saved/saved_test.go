package saved

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/goserg/clubconnect/internal/apperr"
	"github.com/goserg/clubconnect/internal/docstore"
	docmem "github.com/goserg/clubconnect/internal/docstore/mem"
	"github.com/goserg/clubconnect/internal/event"
	"github.com/goserg/clubconnect/internal/identity/local"
	kvmem "github.com/goserg/clubconnect/internal/kvstore/mem"
	"github.com/goserg/clubconnect/internal/session"
	"github.com/goserg/clubconnect/internal/user"
)

type fixture struct {
	cache  *Cache
	sess   *session.Session
	docs   *docmem.Store
	kv     *kvmem.Store
	users  *user.Repository
	hook   *test.Hook
	logger *logrus.Logger
}

func newFixture(t *testing.T, cfg Config, seed func(kv *kvmem.Store)) *fixture {
	t.Helper()
	ctx := context.Background()
	logger, hook := test.NewNullLogger()

	idDocs := docmem.New()
	t.Cleanup(idDocs.Close)
	p, err := local.New(ctx, logger, local.Config{TokenSecret: "secret", HashCost: bcrypt.MinCost},
		idDocs, kvmem.New(), local.NewLogNotifier(logger))
	require.NoError(t, err)

	docs := docmem.New()
	t.Cleanup(docs.Close)
	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, docs.Set(ctx, event.Collection, id, docstore.Data{
			"title":             "Event " + id,
			"date":              "2026-05-01",
			"clubId":            "c1",
			"registeredUserIds": []string{},
			"registrationCount": 0,
		}))
	}
	users := user.New(logger, docs)
	sess := session.New(logger, p, users, session.Config{})
	sess.Start(ctx)
	t.Cleanup(sess.Close)

	kv := kvmem.New()
	if seed != nil {
		seed(kv)
	}
	cache := New(logger, kv, users, event.New(logger, docs), cfg)
	require.NoError(t, cache.Start(ctx, sess))
	t.Cleanup(cache.Close)
	return &fixture{cache: cache, sess: sess, docs: docs, kv: kv, users: users, hook: hook, logger: logger}
}

func (f *fixture) signUp(t *testing.T) string {
	t.Helper()
	_, err := f.sess.Register(context.Background(), "a@b.com", "secret1", session.RegisterFields{FullName: "Ada", RollNo: "1"})
	require.NoError(t, err)
	u := f.sess.User()
	require.NotNil(t, u)
	return u.ID
}

func TestGuestSaveRemove(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()

	require.NoError(t, f.cache.Save(ctx, "e1"))
	require.NoError(t, f.cache.Save(ctx, "e2"))
	require.NoError(t, f.cache.Save(ctx, "e1"))
	assert.Equal(t, []string{"e1", "e2"}, f.cache.SavedIDs())
	assert.True(t, f.cache.IsSaved("e2"))

	raw, ok, err := f.kv.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"version":1,"eventIds":["e1","e2"]}`, raw)

	require.NoError(t, f.cache.Remove(ctx, "e1"))
	assert.Equal(t, []string{"e2"}, f.cache.SavedIDs())
	assert.False(t, f.cache.IsSaved("e1"))
	assert.ErrorIs(t, f.cache.Save(ctx, ""), apperr.ErrValidation)
}

func TestGuestPayloadLoaded(t *testing.T) {
	f := newFixture(t, Config{}, func(kv *kvmem.Store) {
		require.NoError(t, kv.Set(context.Background(), Key, `{"version":1,"eventIds":["e3","e1","e3"]}`))
	})
	assert.Equal(t, []string{"e3", "e1"}, f.cache.SavedIDs())
}

func TestGuestPayloadOtherVersion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"future version", `{"version":2,"eventIds":["e1"]}`},
		{"legacy array", `["e1"]`},
		{"garbage", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{}, func(kv *kvmem.Store) {
				require.NoError(t, kv.Set(context.Background(), Key, tt.raw))
			})
			assert.Empty(t, f.cache.SavedIDs())
			require.NotNil(t, f.hook.LastEntry())
			var logged bool
			for _, e := range f.hook.AllEntries() {
				if e.Level == logrus.ErrorLevel {
					logged = true
				}
			}
			assert.True(t, logged)
		})
	}
}

func TestRequireSignIn(t *testing.T) {
	f := newFixture(t, Config{RequireSignIn: true}, nil)
	err := f.cache.Save(context.Background(), "e1")
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	assert.EqualError(t, err, "Please sign in to save events.")

	f.signUp(t)
	require.NoError(t, f.cache.Save(context.Background(), "e1"))
	assert.True(t, f.cache.IsSaved("e1"))
}

func TestRegisterNeedsSignIn(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	err := f.cache.Register(context.Background(), "e1")
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	assert.EqualError(t, err, "Please sign in to register for events.")
	assert.ErrorIs(t, f.cache.Unregister(context.Background(), "e1"), apperr.ErrAuthRequired)
}

func TestSignInMergesGuestSaves(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()
	require.NoError(t, f.cache.Save(ctx, "e2"))

	id := f.signUp(t)
	assert.True(t, f.cache.SignedIn())
	assert.Equal(t, []string{"e2"}, f.cache.SavedIDs())

	u, err := f.users.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, u.SavedEventIDs)
	_, ok, err := f.kv.Get(ctx, Key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignedInSavesLiveOnProfile(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()
	id := f.signUp(t)

	require.NoError(t, f.cache.Save(ctx, "e1"))
	u, err := f.users.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, u.SavedEventIDs)

	// A change made elsewhere arrives through the profile subscription.
	require.NoError(t, f.users.SaveEvents(ctx, id, "e3"))
	assert.Eventually(t, func() bool { return f.cache.IsSaved("e3") }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.cache.Remove(ctx, "e1"))
	assert.Eventually(t, func() bool {
		u, err := f.users.Get(ctx, id)
		return err == nil && len(u.SavedEventIDs) == 1 && u.SavedEventIDs[0] == "e3"
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterSignedIn(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()
	id := f.signUp(t)

	require.NoError(t, f.cache.Register(ctx, "e1"))
	assert.True(t, f.cache.IsRegistered("e1"))
	assert.Equal(t, []string{"e1"}, f.cache.RegisteredIDs())

	err := f.cache.Register(ctx, "e1")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	doc, err := f.docs.Get(ctx, event.Collection, "e1")
	require.NoError(t, err)
	e, err := event.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, e.RegistrationCount)
	assert.Equal(t, []string{id}, e.RegisteredUserIDs)

	require.NoError(t, f.cache.Unregister(ctx, "e1"))
	assert.False(t, f.cache.IsRegistered("e1"))
	assert.ErrorIs(t, f.cache.Register(ctx, "missing"), apperr.ErrNotFound)
}

func TestSignOutRevertsToGuest(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := context.Background()
	f.signUp(t)
	require.NoError(t, f.cache.Save(ctx, "e1"))
	require.NoError(t, f.cache.Register(ctx, "e2"))

	require.NoError(t, f.sess.Logout(ctx))
	assert.False(t, f.cache.SignedIn())
	assert.Empty(t, f.cache.SavedIDs())
	assert.Empty(t, f.cache.RegisteredIDs())

	require.NoError(t, f.sess.Login(ctx, "a@b.com", "secret1"))
	assert.True(t, f.cache.IsSaved("e1"))
	assert.True(t, f.cache.IsRegistered("e2"))
}

func TestOnChange(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	var calls atomic.Int32
	unsubscribe := f.cache.OnChange(func() { calls.Add(1) })

	require.NoError(t, f.cache.Save(context.Background(), "e1"))
	assert.Equal(t, int32(1), calls.Load())
	require.NoError(t, f.cache.Save(context.Background(), "e1"))
	assert.Equal(t, int32(1), calls.Load())

	unsubscribe()
	require.NoError(t, f.cache.Remove(context.Background(), "e1"))
	assert.Equal(t, int32(1), calls.Load())
}
