package session

import (
	"context"

	"github.com/google/uuid"
)

// Handle binds a Store to one session id.
type Handle struct {
	store Store
	id    string
}

// NewHandle returns a handle for id on store.
func NewHandle(store Store, id string) *Handle {
	return &Handle{store: store, id: id}
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier produced by NewID.
// Anything else is treated as unknown and replaced.
func ValidID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4 && len(id) == 36
}

// ID returns the bound session id.
func (h *Handle) ID() string { return h.id }

// Get implements csrf.Storage.
func (h *Handle) Get(ctx context.Context, key string) (string, bool, error) {
	if h.id == "" {
		return "", false, ErrEmptyID
	}
	return h.store.Get(ctx, h.id, key)
}

// Set implements csrf.Storage.
func (h *Handle) Set(ctx context.Context, key, value string) error {
	if h.id == "" {
		return ErrEmptyID
	}
	return h.store.Set(ctx, h.id, key, value)
}

// Active reports whether the bound session exists in the store.
func (h *Handle) Active(ctx context.Context) (bool, error) {
	if h.id == "" {
		return false, nil
	}
	return h.store.IsActive(ctx, h.id)
}

// Activate creates or extends the bound session.
func (h *Handle) Activate(ctx context.Context) error {
	if h.id == "" {
		return ErrEmptyID
	}
	return h.store.Activate(ctx, h.id)
}

// Destroy removes the bound session.
func (h *Handle) Destroy(ctx context.Context) error {
	if h.id == "" {
		return nil
	}
	return h.store.Destroy(ctx, h.id)
}
