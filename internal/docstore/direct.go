package docstore

import "context"

// Direct exposes s through the Tx interface without any atomicity: every
// call goes straight to the store.
func Direct(ctx context.Context, s Store) Tx {
	return &direct{ctx: ctx, s: s}
}

type direct struct {
	ctx context.Context
	s   Store
}

func (d *direct) Get(collection, id string) (Document, error) {
	return d.s.Get(d.ctx, collection, id)
}

func (d *direct) Add(collection string, data Data) (string, error) {
	return d.s.Add(d.ctx, collection, data)
}

func (d *direct) Set(collection, id string, data Data) error {
	return d.s.Set(d.ctx, collection, id, data)
}

func (d *direct) Update(collection, id string, patch Data) error {
	return d.s.Update(d.ctx, collection, id, patch)
}

func (d *direct) Delete(collection, id string) error {
	return d.s.Delete(d.ctx, collection, id)
}

// Atomically runs fn in a transaction when s supports them and directly
// otherwise.
func Atomically(ctx context.Context, s Store, fn func(tx Tx) error) error {
	if t, ok := s.(Transactor); ok {
		return t.RunTransaction(ctx, fn)
	}
	return fn(Direct(ctx, s))
}
