// Package provider defines the two stores a tiered cache talks to.
//
// Remote is the authoritative, shared, latency-bearing store (a distributed
// memory cache). Local is an optional in-process front tier consulted first.
//
// Both must be byte-for-byte transparent: Get must return exactly the bytes
// previously passed to Set/Add for a key. The cache frames every value itself
// (including its null marker), so stores must not transcode or add metadata.
//
// Keys are fully qualified by the cache ("<serviceID><namespace>:<subkey>",
// at most 250 bytes). External code MUST NOT write under a cache's namespace.
package provider

import (
	"context"
	"errors"
	"time"
)

// TTL conventions shared by Remote and Local.
const (
	// NoExpiry stores the entry without expiration.
	NoExpiry time.Duration = 0
	// BackendDefault asks the store to apply its own configured default TTL.
	BackendDefault time.Duration = -1
)

// ErrRejected reports a write the store refused without an I/O failure
// (admission policy, memory pressure).
var ErrRejected = errors.New("provider: write rejected")

// Remote is the distributed store. Implementations must be safe for
// concurrent use and must honor ctx cancellation: the cache cancels ctx when
// a call exceeds its deadline and expects the call to stop.
type Remote interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value unconditionally. ok=false means the store reported a
	// non-success status without an error.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Add stores value only if key is absent. created=false means the key
	// already existed.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (created bool, err error)

	// Delete removes key. found=false means the key was not present.
	Delete(ctx context.Context, key string) (found bool, err error)

	// Flush removes every key of the form prefix + ":" + subkey. It must not
	// touch keys outside that prefix.
	Flush(ctx context.Context, prefix string) (ok bool, err error)

	Close(ctx context.Context) error
}

// Local is the in-process front tier. Calls are synchronous and expected to be
// fast. Errors are reported to the cache for observability only; callers of
// the cache never see them.
type Local interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}
