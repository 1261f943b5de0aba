package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/docstore/sqlite"
	"github.com/goserg/clubconnect/internal/docstore/storetest"
	"github.com/goserg/clubconnect/internal/storage"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		db, err := storage.Open(filepath.Join(t.TempDir(), "docs.db"))
		require.NoError(t, err)
		s := sqlite.New(db)
		t.Cleanup(func() {
			s.Close()
			db.Close()
		})
		return s
	})
}

func TestBuildSelect(t *testing.T) {
	q, err := docstore.Compile([]docstore.Constraint{
		docstore.Where("clubId", docstore.OpEqual, "c1"),
		docstore.Where("isFeatured", docstore.OpEqual, true),
		docstore.OrderBy("date", docstore.Desc),
		docstore.Limit(3),
	})
	require.NoError(t, err)

	stmt, args := sqlite.BuildSelect("events", q).Sql()
	assert.Contains(t, stmt, "FROM documents")
	assert.Contains(t, stmt, "(json_type(data, '$.clubId') = 'text' AND json_extract(data, '$.clubId') = ?)")
	assert.Contains(t, stmt, "(json_type(data, '$.isFeatured') IN ('true', 'false') AND json_extract(data, '$.isFeatured') = ?)")
	assert.Contains(t, stmt, "json_extract(data, '$.date') DESC")
	assert.Contains(t, stmt, "LIMIT ?")
	assert.Subset(t, args, []any{"events", "c1", 1})
}

func TestIDFilterAndOrder(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	s := sqlite.New(db)
	t.Cleanup(func() {
		s.Close()
		db.Close()
	})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, "clubs", id, docstore.Data{"name": id}))
	}
	docs, err := s.Query(ctx, "clubs",
		docstore.Where(docstore.FieldID, docstore.OpGreater, "a"),
		docstore.OrderBy(docstore.FieldID, docstore.Desc),
	)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
}
