package tiercache

import (
	"fmt"
	"strings"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

const (
	// DefaultTimeout bounds each remote call when no timeout is configured.
	DefaultTimeout = 300 * time.Millisecond

	// ExpireNever stores remote entries without expiration.
	ExpireNever = 0
	// ExpireBackendDefault defers to the remote store's default TTL.
	ExpireBackendDefault = -1
)

// Config holds the settings of one cache. It is immutable once built; derive
// a modified copy with Builder.
type Config struct {
	serviceID       string
	prefix          string
	expireSeconds   int
	timeout         time.Duration
	codec           any
	local           pr.Local
	localTTLSeconds int
	forceLocal      bool
	propagateErrors bool
	allowNull       bool
}

func (c Config) ServiceID() string { return c.serviceID }

// Prefix is the namespace override; empty means the cache name is used.
func (c Config) Prefix() string { return c.prefix }

func (c Config) ExpireSeconds() int { return c.expireSeconds }

func (c Config) Timeout() time.Duration { return c.timeout }

// OperationCodec returns the configured codec (a codec.Codec[V]) or nil.
func (c Config) OperationCodec() any { return c.codec }

func (c Config) LocalTier() pr.Local { return c.local }

func (c Config) LocalTTLSeconds() int { return c.localTTLSeconds }

func (c Config) ForceLocalTierOnRemoteFailure() bool { return c.forceLocal }

func (c Config) PropagateErrors() bool { return c.propagateErrors }

func (c Config) AllowNullValues() bool { return c.allowNull }

// namespace resolves prefix|name.
func (c Config) namespace(name string) string {
	if c.prefix != "" {
		return c.prefix
	}
	return name
}

// remoteTTL maps expireSeconds to the provider TTL convention.
func (c Config) remoteTTL() time.Duration {
	switch {
	case c.expireSeconds == ExpireBackendDefault:
		return pr.BackendDefault
	case c.expireSeconds <= 0:
		return pr.NoExpiry
	default:
		return time.Duration(c.expireSeconds) * time.Second
	}
}

func (c Config) localTTL() time.Duration {
	return time.Duration(c.localTTLSeconds) * time.Second
}

// validate checks what can only be checked once the cache name is known.
func (c Config) validate(name string) error {
	if strings.TrimSpace(c.serviceID) == "" {
		return fmt.Errorf("%w: service id is required", ErrInvalidConfiguration)
	}
	ns := c.namespace(name)
	if ns == "" {
		return fmt.Errorf("%w: either prefix or cache name must be set", ErrInvalidConfiguration)
	}
	if strings.ContainsAny(ns, " :\r\n") {
		return fmt.Errorf("%w: namespace %q must not contain spaces, ':' or newlines", ErrInvalidConfiguration, ns)
	}
	if len(c.serviceID)+len(ns)+1+digestLen > MaxKeyLength {
		return fmt.Errorf("%w: service id and namespace leave no room for keys (%d bytes)",
			ErrInvalidConfiguration, len(c.serviceID)+len(ns)+1)
	}
	if c.timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0", ErrInvalidConfiguration)
	}
	return nil
}

// ConfigBuilder builds a Config. Each With* call validates its argument
// immediately; the first failure is kept and returned by Build, and later
// calls are ignored.
type ConfigBuilder struct {
	c   Config
	err error
}

// NewConfig starts a builder with defaults: timeout 300ms, no expiry, nulls
// cached, errors swallowed, no local tier.
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{c: Config{timeout: DefaultTimeout, allowNull: true}}
}

// Builder returns a builder seeded with c.
func (c Config) Builder() *ConfigBuilder {
	return &ConfigBuilder{c: c}
}

func (b *ConfigBuilder) fail(format string, args ...any) *ConfigBuilder {
	if b.err == nil {
		b.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfiguration}, args...)...)
	}
	return b
}

func (b *ConfigBuilder) WithServiceID(id string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(id) == "" {
		return b.fail("service id must not be empty")
	}
	b.c.serviceID = id
	return b
}

func (b *ConfigBuilder) WithPrefix(prefix string) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(prefix) == "" {
		return b.fail("prefix must not be empty")
	}
	if strings.ContainsAny(prefix, " :\r\n") {
		return b.fail("prefix %q must not contain spaces, ':' or newlines", prefix)
	}
	b.c.prefix = prefix
	return b
}

// WithExpireSeconds sets the remote TTL: 0 never expires, -1 uses the
// backend default, positive values are seconds.
func (b *ConfigBuilder) WithExpireSeconds(s int) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if s < ExpireBackendDefault {
		return b.fail("expire seconds must be >= -1, got %d", s)
	}
	b.c.expireSeconds = s
	return b
}

func (b *ConfigBuilder) WithTimeoutMilliSeconds(ms int64) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if ms <= 0 {
		return b.fail("timeout must be > 0ms, got %d", ms)
	}
	b.c.timeout = time.Duration(ms) * time.Millisecond
	return b
}

// WithOperationCodec sets the codec for values; it must be a codec.Codec[V]
// for the V of the cache it is used with.
func (b *ConfigBuilder) WithOperationCodec(c any) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if c == nil {
		return b.fail("operation codec must not be nil")
	}
	b.c.codec = c
	return b
}

func (b *ConfigBuilder) WithLocalTier(l pr.Local) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if l == nil {
		return b.fail("local tier must not be nil")
	}
	b.c.local = l
	return b
}

// WithLocalTTLSeconds sets the local tier TTL; 0 never expires.
func (b *ConfigBuilder) WithLocalTTLSeconds(s int) *ConfigBuilder {
	if b.err != nil {
		return b
	}
	if s < 0 {
		return b.fail("local ttl seconds must be >= 0, got %d", s)
	}
	b.c.localTTLSeconds = s
	return b
}

// EnableForcingLocalTier updates the local tier even when the remote write
// failed, serving possibly stale data rather than going cold.
func (b *ConfigBuilder) EnableForcingLocalTier() *ConfigBuilder {
	b.c.forceLocal = true
	return b
}

func (b *ConfigBuilder) EnablePropagatingErrors() *ConfigBuilder {
	b.c.propagateErrors = true
	return b
}

func (b *ConfigBuilder) EnableCachingNullValues(allow bool) *ConfigBuilder {
	b.c.allowNull = allow
	return b
}

// Build returns the Config or the first validation error.
func (b *ConfigBuilder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if strings.TrimSpace(b.c.serviceID) == "" {
		return Config{}, fmt.Errorf("%w: service id is required", ErrInvalidConfiguration)
	}
	if b.c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be > 0", ErrInvalidConfiguration)
	}
	return b.c, nil
}

// MustBuild is like Build but panics on error.
func (b *ConfigBuilder) MustBuild() Config {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
