// Package history keeps inbox conversation history behind a key-value port so
// the chat logic does not depend on where the bytes live.
package history

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is a key-value store. Get returns ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
