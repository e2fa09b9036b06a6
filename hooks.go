package tiercache

import "time"

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// Served from the local tier without a remote call.
	LocalHit(storageKey string)
	// Served from the remote store.
	RemoteHit(storageKey string)
	// Neither tier had the key.
	Miss(storageKey string)

	// A remote call, frame codec or null check failed.
	// propagated reports whether the caller saw it.
	// op ∈ {"get", "load", "put", "add", "evict", "clear"}
	RemoteError(op, storageKey string, err error, propagated bool)

	// A local tier call failed; never visible to callers.
	LocalError(op, storageKey string, err error)

	// The loader ran under the key lock.
	LoaderCalled(storageKey string, took time.Duration, err error)

	// A stored frame or payload failed to decode and was deleted.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(storageKey, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) LocalHit(string)                           {}
func (NopHooks) RemoteHit(string)                          {}
func (NopHooks) Miss(string)                               {}
func (NopHooks) RemoteError(string, string, error, bool)   {}
func (NopHooks) LocalError(string, string, error)          {}
func (NopHooks) LoaderCalled(string, time.Duration, error) {}
func (NopHooks) SelfHeal(string, string)                   {}
