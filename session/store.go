// Package session defines the session store contract consumed by the guard and
// ships an in-memory store and a Redis store.
package session

import (
	"context"
	"errors"
)

// Well-known session entry keys.
const (
	KeyRequestToken       = "requestToken"
	KeyRequestFingerprint = "requestFingerprint"
)

var (
	// ErrNotFound is returned when writing to a session that is not active.
	ErrNotFound = errors.New("session not found")
	// ErrEmptyID is returned when an operation is called without a session id.
	ErrEmptyID = errors.New("session id is empty")
)

// Store is a server-side key/value store keyed by session id.
// Implementations must be safe for concurrent use. Exclusive access per
// session id for the duration of a request is the caller's responsibility.
type Store interface {
	// Get returns the value stored under key. ok is false when the session
	// or the key does not exist.
	Get(ctx context.Context, id, key string) (value string, ok bool, err error)
	// Set stores value under key. Returns ErrNotFound if the session is not active.
	Set(ctx context.Context, id, key, value string) error
	// Destroy removes the session and all its entries. Destroying a missing
	// session is not an error.
	Destroy(ctx context.Context, id string) error
	// IsActive reports whether the session exists.
	IsActive(ctx context.Context, id string) (bool, error)
	// Activate creates the session if needed and extends its lifetime.
	Activate(ctx context.Context, id string) error
}
