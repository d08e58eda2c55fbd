// Package cache defines the caching port used by the node catalog and
// provides an in-memory reference implementation.
//
// The catalog never talks to a concrete cache; it depends on the Store
// interface so backends (in-memory for a single process, NATS JetStream
// Key-Value for a shared deployment) can be swapped without touching the
// catalog itself.
package cache

import (
	"context"
	"time"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

// Store is the caching port: byte values keyed by string, with a
// time-to-live on write and explicit invalidation.
type Store interface {
	// Get retrieves the value stored under key.
	// The boolean reports whether a live (non-expired) entry was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given time-to-live.
	// A non-positive ttl is invalid.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if key == "" {
		return sdkerrors.ErrInvalidKey
	}
	return nil
}
