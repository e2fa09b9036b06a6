// Package tiercache implements a cache-aside layer over a remote key-value
// store with an optional in-process local tier.
//
// Components:
//   - provider.Remote: byte store with TTL, add-if-absent and prefix flush
//     (Redis, in-memory).
//   - provider.Local: optional byte store consulted first (Ristretto,
//     BigCache, in-memory).
//   - codec.Codec[V]: (de)serializes V <-> []byte. Msgpack by default.
//   - keylock.Provider: striped read/write locks that serialize loaders of
//     the same key.
//
// Keys:
//
//	<serviceID><prefix|name>:<subkey>
//
// The subkey is the key's string form with spaces replaced by '_' and a
// short hash appended. When the full key exceeds MaxKeyLength bytes the
// subkey is replaced by its own MD5 hex digest.
//
// Stored values are framed (see internal/wire) so that a cached null is
// distinguishable from a miss.
//
// Failure handling:
//
// Remote timeouts, remote failures and serialization failures are swallowed
// by default: reads report a miss and writes become best effort. Enable
// propagation with ConfigBuilder.EnablePropagatingErrors. Interruption,
// invalid keys and arguments, and loader failures are always returned.
//
// Load pattern:
//
//	users, _ := tiercache.New[*User](tiercache.Options[*User]{
//		Name:   "users",
//		Remote: redisProvider,
//		Config: cfg,
//	})
//	u, err := users.GetOrLoad(ctx, id, func(ctx context.Context) (*User, error) {
//		return db.User(ctx, id)
//	})
package tiercache
