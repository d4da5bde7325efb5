// Package kv abstracts the persistence used by the repository: an opaque
// key-value store holding named slots of serialized JSON. Backends only
// need last-write-wins Get/Set; no transactionality is assumed.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the slot has never been written.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
