package bot

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoPrimaryCache is the startup failure for zero designated primary
	// caches.
	ErrNoPrimaryCache = errors.New("no primary cache configured")
	// ErrMultiplePrimaryCaches is the startup failure for more than one
	// designated primary cache.
	ErrMultiplePrimaryCaches = errors.New("multiple primary caches configured")
)

// Cache is a key/value store with optional expiry. Implementations namespace
// keys with a bot-instance prefix so deployments can share a backing store.
// Exactly one registered cache must report Primary; the cooldown gate uses
// that one.
type Cache interface {
	Name() string
	Primary() bool
	Setup(ctx context.Context) error
	// Set stores a value. A zero expiry means no expiry.
	Set(ctx context.Context, key, value string, expiry time.Duration) error
	// Get returns the value and whether the key was present (and unexpired).
	Get(ctx context.Context, key string) (string, bool, error)
	Stop() error
}
