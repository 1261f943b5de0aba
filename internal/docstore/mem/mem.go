// Package mem is an in-process document store. Documents are kept as JSON
// so values read back have the same types as from any other store.
package mem

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/goserg/clubconnect/internal/docstore"
)

var errEmptyID = errors.New("empty document id")

type Store struct {
	mu   sync.RWMutex
	cols map[string]map[string][]byte
	hub  *docstore.Hub
}

var (
	_ docstore.Store      = (*Store)(nil)
	_ docstore.Transactor = (*Store)(nil)
)

func New() *Store {
	return &Store{
		cols: make(map[string]map[string][]byte),
		hub:  docstore.NewHub(),
	}
}

func (s *Store) Query(ctx context.Context, collection string, constraints ...docstore.Constraint) ([]docstore.Document, error) {
	q, err := docstore.Compile(constraints)
	if err != nil {
		return nil, docstore.Wrap("query", docstore.CodeInvalidArgument, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, docstore.Wrap("query", docstore.CodeUnavailable, err)
	}
	s.mu.RLock()
	docs, err := s.all(collection)
	s.mu.RUnlock()
	if err != nil {
		return nil, docstore.Wrap("query", docstore.CodeInternal, err)
	}
	return docstore.Apply(q, docs), nil
}

// all returns the collection sorted by id so unordered queries are stable.
func (s *Store) all(collection string) ([]docstore.Document, error) {
	col := s.cols[collection]
	docs := make([]docstore.Document, 0, len(col))
	for id, raw := range col {
		d, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, docstore.Wrap("get", docstore.CodeUnavailable, err)
	}
	s.mu.RLock()
	raw, ok := s.cols[collection][id]
	s.mu.RUnlock()
	if !ok {
		return docstore.Document{}, docstore.NotFound("get", collection, id)
	}
	d, err := decode(id, raw)
	if err != nil {
		return docstore.Document{}, docstore.Wrap("get", docstore.CodeInternal, err)
	}
	return d, nil
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

// RunTransaction runs fn with exclusive access to the store. Writes are
// buffered and applied only if fn returns nil.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return docstore.Wrap("transaction", docstore.CodeUnavailable, err)
	}
	s.mu.Lock()
	t := &tx{store: s, writes: make(map[key][]byte)}
	err := fn(t)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changed := t.commit()
	s.mu.Unlock()
	for _, c := range changed {
		s.hub.Notify(c)
	}
	return nil
}

// Close ends every live query.
func (s *Store) Close() {
	s.hub.Close()
}

type key struct {
	collection string
	id         string
}

type tx struct {
	store  *Store
	writes map[key][]byte
	order  []key
}

var _ docstore.Tx = (*tx)(nil)

func (t *tx) read(collection, id string) ([]byte, bool) {
	k := key{collection, id}
	if raw, ok := t.writes[k]; ok {
		return raw, raw != nil
	}
	raw, ok := t.store.cols[collection][id]
	return raw, ok
}

func (t *tx) write(collection, id string, raw []byte) {
	k := key{collection, id}
	if _, ok := t.writes[k]; !ok {
		t.order = append(t.order, k)
	}
	t.writes[k] = raw
}

func (t *tx) Get(collection, id string) (docstore.Document, error) {
	raw, ok := t.read(collection, id)
	if !ok {
		return docstore.Document{}, docstore.NotFound("get", collection, id)
	}
	d, err := decode(id, raw)
	if err != nil {
		return docstore.Document{}, docstore.Wrap("get", docstore.CodeInternal, err)
	}
	return d, nil
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
	raw, err := json.Marshal(data)
	if err != nil {
		return docstore.Wrap("set", docstore.CodeInvalidArgument, err)
	}
	t.write(collection, id, raw)
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
	if _, ok := t.read(collection, id); !ok {
		return nil
	}
	t.write(collection, id, nil)
	return nil
}

func (t *tx) commit() []string {
	seen := make(map[string]bool)
	var changed []string
	for _, k := range t.order {
		raw := t.writes[k]
		if raw == nil {
			delete(t.store.cols[k.collection], k.id)
		} else {
			if t.store.cols[k.collection] == nil {
				t.store.cols[k.collection] = make(map[string][]byte)
			}
			t.store.cols[k.collection][k.id] = raw
		}
		if !seen[k.collection] {
			seen[k.collection] = true
			changed = append(changed, k.collection)
		}
	}
	return changed
}

func decode(id string, raw []byte) (docstore.Document, error) {
	var data docstore.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Data: data}, nil
}
