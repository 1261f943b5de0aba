// Package kvstore is the small local key-value storage the client keeps
// between runs: the guest saved-events payload and the session token.
package kvstore

import "context"

type Store interface {
	// Get reports ok == false when key was never set or was deleted.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
