package tiercache

import (
	"context"

	c "github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/keylock"
	pr "github.com/unkn0wn-root/tiercache/provider"
)

// Loader produces the value for a missing key. Its error is always returned
// to the caller, wrapped with ErrValueRetrieval.
type Loader[V any] func(ctx context.Context) (V, error)

// Cache is a cache-aside view over a remote store with an optional local
// tier. Keys are arbitrary values encoded by EncodeKey; V is the caller's value
// type, serialized by the operation codec.
//
// A nil V (for pointer, map, slice, interface, func and chan types) is the
// application null. When nulls are allowed a cached null is reported as
// (zero, true, nil) and a miss as (zero, false, nil).
type Cache[V any] interface {
	Name() string

	// Get reads the local tier, then the remote store. Remote failures are
	// reported as misses unless the config propagates errors.
	Get(ctx context.Context, key any) (v V, ok bool, err error)

	// GetOrLoad returns the cached value or runs load under the key's write
	// lock, re-checking the remote store first, and writes the result through.
	// At most one loader runs at a time per lock stripe.
	GetOrLoad(ctx context.Context, key any, load Loader[V]) (V, error)

	Put(ctx context.Context, key any, value V) error

	// PutIfAbsent stores value only if the remote store has no entry for key.
	// When an entry exists it is read back and returned as prev with
	// existed=true. The read is not atomic with the failed add: a concurrent
	// writer can land in between, so prev is best effort.
	PutIfAbsent(ctx context.Context, key any, value V) (prev V, existed bool, err error)

	// Evict is idempotent: evicting an absent key is not an error.
	Evict(ctx context.Context, key any) error

	// Clear flushes this cache's namespace on the remote store (not the whole
	// store) and clears the local tier. The local tier is cleared as a whole:
	// other caches sharing the same Local lose their local entries too and
	// fall back to the remote store.
	Clear(ctx context.Context) error

	// BackendKey returns the remote key for key. Useful for diagnostics.
	BackendKey(key any) (string, error)

	Close(ctx context.Context) error
}

// Options wires a cache. Name, Remote and Config are required.
type Options[V any] struct {
	// Name is the cache name; it is the namespace unless Config has a prefix.
	Name   string
	Remote pr.Remote
	Config Config

	Codec       c.Codec[V]       // nil => Config.OperationCodec, then codec.Default
	Locks       keylock.Provider // nil => keylock.NewDefault()
	Logger      Logger           // nil => NopLogger
	Hooks       Hooks            // nil => NopHooks
	CloseRemote bool             // Close also closes Remote
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
