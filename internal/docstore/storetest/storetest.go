// Package storetest holds the behaviour every docstore.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/docstore"
)

// Factory returns an empty store. It is called once per subtest and should
// register its own cleanup.
type Factory func(t *testing.T) docstore.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s docstore.Store)
	}{
		{"GetMissing", testGetMissing},
		{"SetGet", testSetGet},
		{"Add", testAdd},
		{"Update", testUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"Delete", testDelete},
		{"QueryFilters", testQueryFilters},
		{"QueryTypeMismatch", testQueryTypeMismatch},
		{"QueryOrderLimit", testQueryOrderLimit},
		{"QueryByID", testQueryByID},
		{"QueryInvalidField", testQueryInvalidField},
		{"Subscribe", testSubscribe},
		{"Transaction", testTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func seed(t *testing.T, s docstore.Store, collection string, docs map[string]docstore.Data) {
	t.Helper()
	for id, data := range docs {
		require.NoError(t, s.Set(context.Background(), collection, id, data))
	}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func testGetMissing(t *testing.T, s docstore.Store) {
	_, err := s.Get(context.Background(), "clubs", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrNotFound))

	var coded interface{ Code() string }
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, docstore.CodeNotFound, coded.Code())
}

func testSetGet(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "clubs", "c1", docstore.Data{
		"name":        "Tech Club",
		"memberCount": 3,
		"isActive":    true,
		"tags":        []string{"a", "b"},
	}))
	d, err := s.Get(ctx, "clubs", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", d.ID)
	assert.Equal(t, "Tech Club", d.Data["name"])
	assert.Equal(t, float64(3), d.Data["memberCount"])
	assert.Equal(t, true, d.Data["isActive"])
	assert.Equal(t, []any{"a", "b"}, d.Data["tags"])

	require.NoError(t, s.Set(ctx, "clubs", "c1", docstore.Data{"name": "Renamed"}))
	d, err = s.Get(ctx, "clubs", "c1")
	require.NoError(t, err)
	assert.Equal(t, docstore.Data{"name": "Renamed"}, d.Data)

	_, err = s.Get(ctx, "events", "c1")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}

func testAdd(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	id1, err := s.Add(ctx, "events", docstore.Data{"title": "one"})
	require.NoError(t, err)
	id2, err := s.Add(ctx, "events", docstore.Data{"title": "two"})
	require.NoError(t, err)
	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)

	d, err := s.Get(ctx, "events", id2)
	require.NoError(t, err)
	assert.Equal(t, "two", d.Data["title"])
}

func testUpdate(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "clubs", map[string]docstore.Data{
		"c1": {"name": "Tech Club", "category": "technical"},
	})
	require.NoError(t, s.Update(ctx, "clubs", "c1", docstore.Data{"category": "cultural", "memberCount": 5}))
	d, err := s.Get(ctx, "clubs", "c1")
	require.NoError(t, err)
	assert.Equal(t, docstore.Data{
		"name":        "Tech Club",
		"category":    "cultural",
		"memberCount": float64(5),
	}, d.Data)
}

func testUpdateMissing(t *testing.T, s docstore.Store) {
	err := s.Update(context.Background(), "clubs", "ghost", docstore.Data{"name": "x"})
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
	_, err = s.Get(context.Background(), "clubs", "ghost")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}

func testDelete(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "clubs", map[string]docstore.Data{"c1": {"name": "x"}})
	require.NoError(t, s.Delete(ctx, "clubs", "c1"))
	_, err := s.Get(ctx, "clubs", "c1")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
	require.NoError(t, s.Delete(ctx, "clubs", "c1"))
}

func eventDocs() map[string]docstore.Data {
	return map[string]docstore.Data{
		"e1": {"title": "Hackathon", "clubId": "c1", "date": "2026-03-10", "isFeatured": true, "count": 10},
		"e2": {"title": "Poetry", "clubId": "c2", "date": "2026-03-01", "isFeatured": false, "count": 2},
		"e3": {"title": "Robotics", "clubId": "c1", "date": "2026-04-01", "isFeatured": false, "count": 7},
		"e4": {"title": "Draft", "clubId": "c1", "date": nil, "count": "many"},
	}
}

func testQueryFilters(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "events", eventDocs())

	docs, err := s.Query(ctx, "events", docstore.Where("clubId", docstore.OpEqual, "c1"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e1", "e3", "e4"}, ids(docs))

	docs, err = s.Query(ctx, "events",
		docstore.Where("clubId", docstore.OpEqual, "c1"),
		docstore.Where("date", docstore.OpGreaterEqual, "2026-03-10"),
	)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e1", "e3"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.Where("isFeatured", docstore.OpEqual, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.Where("count", docstore.OpGreater, 5))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e1", "e3"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.Where("count", docstore.OpLess, 7.5))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e2", "e3"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.Where("date", docstore.OpEqual, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, ids(docs))

	docs, err = s.Query(ctx, "nothing-here")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func testQueryTypeMismatch(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "events", eventDocs())

	docs, err := s.Query(ctx, "events", docstore.Where("count", docstore.OpGreaterEqual, 0))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.Where("count", docstore.OpGreaterEqual, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.Where("isFeatured", docstore.OpEqual, "true"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testQueryOrderLimit(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "events", eventDocs())
	notDraft := docstore.Where("date", docstore.OpGreaterEqual, "")

	docs, err := s.Query(ctx, "events", notDraft, docstore.OrderBy("date", docstore.Asc))
	require.NoError(t, err)
	assert.Equal(t, []string{"e2", "e1", "e3"}, ids(docs))

	docs, err = s.Query(ctx, "events", notDraft, docstore.OrderBy("date", docstore.Desc), docstore.Limit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e1"}, ids(docs))

	docs, err = s.Query(ctx, "events",
		docstore.Where("clubId", docstore.OpEqual, "c1"),
		docstore.OrderBy("clubId", docstore.Asc),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e3", "e4"}, ids(docs), "ties fall back to id order")
}

func testQueryByID(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "events", eventDocs())

	docs, err := s.Query(ctx, "events", docstore.Where(docstore.FieldID, docstore.OpEqual, "e2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, ids(docs))

	docs, err = s.Query(ctx, "events", docstore.OrderBy(docstore.FieldID, docstore.Desc), docstore.Limit(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, ids(docs))
}

func testQueryInvalidField(t *testing.T, s docstore.Store) {
	_, err := s.Query(context.Background(), "events", docstore.Where("date'); DROP TABLE documents; --", docstore.OpEqual, "x"))
	require.Error(t, err)
	var coded interface{ Code() string }
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, docstore.CodeInvalidArgument, coded.Code())

	_, err = s.Query(context.Background(), "events", docstore.Where("date", docstore.Op("!="), "x"))
	require.Error(t, err)
}

func next(t *testing.T, sub *docstore.Subscription) docstore.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
	}
	return docstore.Snapshot{}
}

func testSubscribe(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "events", map[string]docstore.Data{"e1": {"date": "2026-03-10"}})

	sub, err := s.Subscribe(ctx, "events", docstore.OrderBy("date", docstore.Asc))
	require.NoError(t, err)
	defer sub.Close()

	snap := next(t, sub)
	require.NoError(t, snap.Err)
	assert.Equal(t, []string{"e1"}, ids(snap.Docs))

	require.NoError(t, s.Set(ctx, "events", "e0", docstore.Data{"date": "2026-01-01"}))
	snap = next(t, sub)
	require.NoError(t, snap.Err)
	assert.Equal(t, []string{"e0", "e1"}, ids(snap.Docs))

	require.NoError(t, s.Delete(ctx, "events", "e1"))
	snap = next(t, sub)
	assert.Equal(t, []string{"e0"}, ids(snap.Docs))

	sub.Close()
	sub.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func testTransaction(t *testing.T, s docstore.Store) {
	txs, ok := s.(docstore.Transactor)
	if !ok {
		t.Skip("store has no transactions")
	}
	ctx := context.Background()
	seed(t, s, "events", map[string]docstore.Data{"e1": {"count": 0}})

	boom := errors.New("boom")
	err := txs.RunTransaction(ctx, func(tx docstore.Tx) error {
		if err := tx.Update("events", "e1", docstore.Data{"count": 1}); err != nil {
			return err
		}
		if _, err := tx.Add("registrations", docstore.Data{"eventId": "e1"}); err != nil {
			return err
		}
		d, err := tx.Get("events", "e1")
		require.NoError(t, err)
		assert.Equal(t, float64(1), d.Data["count"], "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	d, err := s.Get(ctx, "events", "e1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), d.Data["count"])
	regs, err := s.Query(ctx, "registrations")
	require.NoError(t, err)
	assert.Empty(t, regs)

	err = txs.RunTransaction(ctx, func(tx docstore.Tx) error {
		if err := tx.Update("events", "e1", docstore.Data{"count": 1}); err != nil {
			return err
		}
		return tx.Set("users", "u1", docstore.Data{"registeredEventIds": []string{"e1"}})
	})
	require.NoError(t, err)
	d, err = s.Get(ctx, "events", "e1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), d.Data["count"])
	_, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
}
