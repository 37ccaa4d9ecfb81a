// Package kv provides the durable string key-value store the calendar
// persists into.
package kv

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by Set when the write would exceed the
// store's capacity.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
