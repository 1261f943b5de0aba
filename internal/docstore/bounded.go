package docstore

import (
	"context"
	"errors"
	"time"
)

const DefaultTimeout = 10 * time.Second

// Bounded puts a deadline on every store call and retries reads once when
// the backend reports itself unavailable. Live queries are not bounded.
type Bounded struct {
	store   Store
	timeout time.Duration
}

type boundedTx struct {
	*Bounded
	tx Transactor
}

// NewBounded wraps s. The result implements Transactor only when s does.
func NewBounded(s Store, timeout time.Duration) Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &Bounded{store: s, timeout: timeout}
	if tx, ok := s.(Transactor); ok {
		return &boundedTx{Bounded: b, tx: tx}
	}
	return b
}

func (b *Bounded) Query(ctx context.Context, collection string, constraints ...Constraint) ([]Document, error) {
	var docs []Document
	err := b.retry(ctx, func(ctx context.Context) error {
		var err error
		docs, err = b.store.Query(ctx, collection, constraints...)
		return err
	})
	return docs, err
}

func (b *Bounded) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := b.retry(ctx, func(ctx context.Context) error {
		var err error
		doc, err = b.store.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

func (b *Bounded) Add(ctx context.Context, collection string, data Data) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.store.Add(ctx, collection, data)
}

func (b *Bounded) Set(ctx context.Context, collection, id string, data Data) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.store.Set(ctx, collection, id, data)
}

func (b *Bounded) Update(ctx context.Context, collection, id string, patch Data) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.store.Update(ctx, collection, id, patch)
}

func (b *Bounded) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.store.Delete(ctx, collection, id)
}

func (b *Bounded) Subscribe(ctx context.Context, collection string, constraints ...Constraint) (*Subscription, error) {
	return b.store.Subscribe(ctx, collection, constraints...)
}

func (b *boundedTx) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.tx.RunTransaction(ctx, fn)
}

func (b *Bounded) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	call := func() error {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		return fn(ctx)
	}
	err := call()
	if err != nil && errors.Is(err, ErrUnavailable) && ctx.Err() == nil {
		err = call()
	}
	return err
}
