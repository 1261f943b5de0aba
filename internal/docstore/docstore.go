// Package docstore describes the document database the repositories are
// built on: named collections of JSON documents with simple constraint
// queries, live query subscriptions and optional transactions.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Data is the JSON object stored for one document.
type Data map[string]any

type Document struct {
	ID   string
	Data Data
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Encode turns a tagged struct into document data.
func Encode(v any) (Data, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

type Store interface {
	// Query returns the documents of collection matching every constraint.
	Query(ctx context.Context, collection string, constraints ...Constraint) ([]Document, error)
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Add stores data under a new generated id.
	Add(ctx context.Context, collection string, data Data) (string, error)
	// Set creates or overwrites the document.
	Set(ctx context.Context, collection, id string, data Data) error
	// Update merges patch into the top-level fields of an existing document.
	Update(ctx context.Context, collection, id string, patch Data) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe starts a live query. The caller must Close the subscription.
	Subscribe(ctx context.Context, collection string, constraints ...Constraint) (*Subscription, error)
}

// Transactor is implemented by stores that can apply several writes atomically.
type Transactor interface {
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of the store inside a transaction. Writes become visible
// to other readers only once the transaction function returns nil.
type Tx interface {
	Get(collection, id string) (Document, error)
	Add(collection string, data Data) (string, error)
	Set(collection, id string, data Data) error
	Update(collection, id string, patch Data) error
	Delete(collection, id string) error
}

// Backend error codes.
const (
	CodeNotFound         = "not-found"
	CodeAlreadyExists    = "already-exists"
	CodeInvalidArgument  = "invalid-argument"
	CodeUnavailable      = "unavailable"
	CodeDeadlineExceeded = "deadline-exceeded"
	CodeAborted          = "aborted"
	CodeInternal         = "internal"
)

type Error struct {
	Op     string
	Status string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("docstore %s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("docstore %s: %s: %v", e.Op, e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Code() string {
	return e.Status
}

// Is lets errors.Is(err, ErrNotFound) match any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Status == e.Status
}

var (
	ErrNotFound    = &Error{Status: CodeNotFound}
	ErrUnavailable = &Error{Status: CodeUnavailable}
)

// NotFound builds the not-found error implementations return.
func NotFound(op, collection, id string) error {
	return &Error{Op: op, Status: CodeNotFound, Err: fmt.Errorf("%s/%s", collection, id)}
}

// Wrap tags err with op and code unless it already is a store error.
func Wrap(op, code string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeDeadlineExceeded
	}
	return &Error{Op: op, Status: code, Err: err}
}
