// Package sqlite keeps documents as JSON rows in the documents table and
// translates constraints into json_extract expressions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"

	"github.com/goserg/clubconnect/gen/model"
	"github.com/goserg/clubconnect/gen/table"
	"github.com/goserg/clubconnect/internal/docstore"
)

var errEmptyID = errors.New("empty document id")

type Store struct {
	db  *sql.DB
	hub *docstore.Hub
}

var (
	_ docstore.Store      = (*Store)(nil)
	_ docstore.Transactor = (*Store)(nil)
)

// New uses db as is. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		hub: docstore.NewHub(),
	}
}

func (s *Store) Query(ctx context.Context, collection string, constraints ...docstore.Constraint) ([]docstore.Document, error) {
	q, err := docstore.Compile(constraints)
	if err != nil {
		return nil, docstore.Wrap("query", docstore.CodeInvalidArgument, err)
	}
	var rows []model.Documents
	if err := buildSelect(collection, q).QueryContext(ctx, s.db, &rows); err != nil {
		return nil, docstore.Wrap("query", docstore.CodeUnavailable, err)
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, r := range rows {
		d, err := decode(r.ID, r.Data)
		if err != nil {
			return nil, docstore.Wrap("query", docstore.CodeInternal, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	return get(ctx, s.db, collection, id)
}

func (s *Store) Add(ctx context.Context, collection string, data docstore.Data) (string, error) {
	var id string
	err := s.RunTransaction(ctx, func(tx docstore.Tx) error {
		var err error
		id, err = tx.Add(collection, data)
		return err
	})
	return id, err
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Data) error {
	return s.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Set(collection, id, data)
	})
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Data) error {
	return s.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Update(collection, id, patch)
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunTransaction(ctx, func(tx docstore.Tx) error {
		return tx.Delete(collection, id)
	})
}

func (s *Store) Subscribe(ctx context.Context, collection string, constraints ...docstore.Constraint) (*docstore.Subscription, error) {
	if _, err := docstore.Compile(constraints); err != nil {
		return nil, docstore.Wrap("subscribe", docstore.CodeInvalidArgument, err)
	}
	return s.hub.Subscribe(ctx, collection, func(ctx context.Context) ([]docstore.Document, error) {
		return s.Query(ctx, collection, constraints...)
	}), nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return docstore.Wrap("transaction", docstore.CodeUnavailable, err)
	}
	defer sqlTx.Rollback()

	t := &tx{ctx: ctx, tx: sqlTx, changed: make(map[string]bool)}
	if err := fn(t); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return docstore.Wrap("transaction", docstore.CodeAborted, err)
	}
	for c := range t.changed {
		s.hub.Notify(c)
	}
	return nil
}

// Close ends every live query. The database handle belongs to the caller.
func (s *Store) Close() {
	s.hub.Close()
}

func get(ctx context.Context, db qrm.Queryable, collection, id string) (docstore.Document, error) {
	var dest model.Documents
	err := sqlite.
		SELECT(table.Documents.Collection, table.Documents.ID, table.Documents.Data).
		FROM(table.Documents).
		WHERE(table.Documents.Collection.EQ(sqlite.String(collection)).
			AND(table.Documents.ID.EQ(sqlite.String(id)))).
		QueryContext(ctx, db, &dest)
	if errors.Is(err, qrm.ErrNoRows) {
		return docstore.Document{}, docstore.NotFound("get", collection, id)
	}
	if err != nil {
		return docstore.Document{}, docstore.Wrap("get", docstore.CodeUnavailable, err)
	}
	d, err := decode(id, dest.Data)
	if err != nil {
		return docstore.Document{}, docstore.Wrap("get", docstore.CodeInternal, err)
	}
	return d, nil
}

type tx struct {
	ctx     context.Context
	tx      *sql.Tx
	changed map[string]bool
}

var _ docstore.Tx = (*tx)(nil)

func (t *tx) Get(collection, id string) (docstore.Document, error) {
	return get(t.ctx, t.tx, collection, id)
}

func (t *tx) Add(collection string, data docstore.Data) (string, error) {
	id := uuid.NewString()
	if err := t.Set(collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (t *tx) Set(collection, id string, data docstore.Data) error {
	if id == "" {
		return docstore.Wrap("set", docstore.CodeInvalidArgument, errEmptyID)
	}
	if data == nil {
		data = docstore.Data{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return docstore.Wrap("set", docstore.CodeInvalidArgument, err)
	}
	now := time.Now().UTC()
	_, err = table.Documents.
		INSERT(table.Documents.AllColumns).
		MODEL(model.Documents{
			Collection: collection,
			ID:         id,
			Data:       string(raw),
			CreatedAt:  now,
			UpdatedAt:  now,
		}).
		ON_CONFLICT(table.Documents.Collection, table.Documents.ID).
		DO_UPDATE(sqlite.SET(
			table.Documents.Data.SET(table.Documents.EXCLUDED.Data),
			table.Documents.UpdatedAt.SET(table.Documents.EXCLUDED.UpdatedAt),
		)).
		ExecContext(t.ctx, t.tx)
	if err != nil {
		return docstore.Wrap("set", docstore.CodeUnavailable, err)
	}
	t.changed[collection] = true
	return nil
}

func (t *tx) Update(collection, id string, patch docstore.Data) error {
	d, err := t.Get(collection, id)
	if err != nil {
		return err
	}
	if d.Data == nil {
		d.Data = docstore.Data{}
	}
	for k, v := range patch {
		d.Data[k] = v
	}
	return t.Set(collection, id, d.Data)
}

func (t *tx) Delete(collection, id string) error {
	res, err := table.Documents.
		DELETE().
		WHERE(table.Documents.Collection.EQ(sqlite.String(collection)).
			AND(table.Documents.ID.EQ(sqlite.String(id)))).
		ExecContext(t.ctx, t.tx)
	if err != nil {
		return docstore.Wrap("delete", docstore.CodeUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		t.changed[collection] = true
	}
	return nil
}

// buildSelect renders q. Field names are safe to inline: Compile only lets
// identifiers through. Typed guards mirror docstore.Matches, where a value of
// another JSON type never satisfies a filter.
func buildSelect(collection string, q docstore.Query) sqlite.SelectStatement {
	where := table.Documents.Collection.EQ(sqlite.String(collection))
	for _, f := range q.Filters {
		where = where.AND(filterExp(f))
	}
	orders := make([]sqlite.OrderByClause, 0, len(q.Orders)+1)
	for _, o := range q.Orders {
		col := column(o.Field)
		if o.Dir == docstore.Desc {
			orders = append(orders, col.DESC())
		} else {
			orders = append(orders, col.ASC())
		}
	}
	orders = append(orders, table.Documents.ID.ASC())

	stmt := sqlite.
		SELECT(table.Documents.Collection, table.Documents.ID, table.Documents.Data).
		FROM(table.Documents).
		WHERE(where).
		ORDER_BY(orders...)
	if q.Limit > 0 {
		stmt = stmt.LIMIT(int64(q.Limit))
	}
	return stmt
}

func column(field string) sqlite.Expression {
	if field == docstore.FieldID {
		return table.Documents.ID
	}
	return sqlite.Raw(fmt.Sprintf("json_extract(data, '$.%s')", field))
}

func filterExp(f docstore.Filter) sqlite.BoolExpression {
	if f.Field == docstore.FieldID {
		v, ok := f.Value.(string)
		if !ok {
			return sqlite.Bool(false)
		}
		return compareID(f.Op, sqlite.String(v))
	}
	typ := fmt.Sprintf("json_type(data, '$.%s')", f.Field)
	col := fmt.Sprintf("json_extract(data, '$.%s')", f.Field)
	var guard string
	var arg any
	switch v := f.Value.(type) {
	case nil:
		if f.Op == docstore.OpGreater || f.Op == docstore.OpLess {
			return sqlite.Bool(false)
		}
		return sqlite.BoolExp(sqlite.Raw(fmt.Sprintf("(%s IS NULL OR %s = 'null')", typ, typ)))
	case bool:
		guard, arg = "IN ('true', 'false')", 0
		if v {
			arg = 1
		}
	case float64:
		guard, arg = "IN ('integer', 'real')", v
	case string:
		guard, arg = "= 'text'", v
	default:
		return sqlite.Bool(false)
	}
	return sqlite.BoolExp(sqlite.Raw(
		fmt.Sprintf("(%s %s AND %s %s :value)", typ, guard, col, sqlOp(f.Op)),
		sqlite.RawArgs{":value": arg},
	))
}

func compareID(op docstore.Op, v sqlite.StringExpression) sqlite.BoolExpression {
	id := table.Documents.ID
	switch op {
	case docstore.OpGreaterEqual:
		return id.GT_EQ(v)
	case docstore.OpLessEqual:
		return id.LT_EQ(v)
	case docstore.OpGreater:
		return id.GT(v)
	case docstore.OpLess:
		return id.LT(v)
	}
	return id.EQ(v)
}

func sqlOp(op docstore.Op) string {
	if op == docstore.OpEqual {
		return "="
	}
	return string(op)
}

func decode(id, raw string) (docstore.Document, error) {
	var data docstore.Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Data: data}, nil
}
