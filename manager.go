package tiercache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/unkn0wn-root/tiercache/keylock"
	pr "github.com/unkn0wn-root/tiercache/provider"
)

var errManagerClosed = errors.New("manager is closed")

// ManagerOptions configures a Manager. Zero values fall back to the base
// Config (expire) or package defaults.
type ManagerOptions struct {
	// DefaultExpireSeconds applies to names missing from ExpireSecondsByName.
	// nil keeps the base Config's expire.
	DefaultExpireSeconds *int
	ExpireSecondsByName  map[string]int

	Locks  keylock.Provider // shared by every cache; nil => keylock.NewDefault()
	Logger Logger
	Hooks  Hooks
}

// Manager hands out named caches over one shared remote store.
// Caches are created on first use and live until Close. They all share the
// base Config's local tier, so Clear on one cache empties the local entries
// of every other cache as well; their remote entries are untouched.
type Manager struct {
	remote pr.Remote
	base   Config
	opts   ManagerOptions

	mu     sync.Mutex
	caches map[string]any // name -> Cache[V]
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func NewManager(remote pr.Remote, base Config, opts ManagerOptions) (*Manager, error) {
	if remote == nil {
		return nil, fmt.Errorf("%w: remote is required", ErrInvalidConfiguration)
	}
	for name, s := range opts.ExpireSecondsByName {
		if s < ExpireBackendDefault {
			return nil, fmt.Errorf("%w: expire seconds for %q must be >= -1", ErrInvalidConfiguration, name)
		}
	}
	if d := opts.DefaultExpireSeconds; d != nil && *d < ExpireBackendDefault {
		return nil, fmt.Errorf("%w: default expire seconds must be >= -1", ErrInvalidConfiguration)
	}
	if opts.Locks == nil {
		opts.Locks = keylock.NewDefault()
	}
	return &Manager{
		remote: remote,
		base:   base,
		opts:   opts,
		caches: make(map[string]any),
	}, nil
}

// configFor returns the base config with the expire for name applied.
func (m *Manager) configFor(name string) Config {
	cfg := m.base
	if s, ok := m.opts.ExpireSecondsByName[name]; ok {
		cfg.expireSeconds = s
	} else if d := m.opts.DefaultExpireSeconds; d != nil {
		cfg.expireSeconds = *d
	}
	return cfg
}

// Named returns the cache registered under name, creating it on first use.
// Asking for an existing name with a different V fails with ErrInvalidArgument.
func Named[V any](m *Manager, name string) (Cache[V], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, opErr("named", "", ErrInvalidArgument, errManagerClosed)
	}
	if existing, ok := m.caches[name]; ok {
		cc, ok := existing.(Cache[V])
		if !ok {
			var zero V
			return nil, opErr("named", "", ErrInvalidArgument,
				fmt.Errorf("cache %q holds %T, not %T", name, existing, zero))
		}
		return cc, nil
	}

	cc, err := New[V](Options[V]{
		Name:   name,
		Remote: m.remote,
		Config: m.configFor(name),
		Locks:  m.opts.Locks,
		Logger: m.opts.Logger,
		Hooks:  m.opts.Hooks,
	})
	if err != nil {
		return nil, err
	}
	m.caches[name] = cc
	return cc, nil
}

// Names lists the created caches, sorted.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.caches))
}

// Close closes the shared remote once. Named fails afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		m.closeErr = m.remote.Close(ctx)
	})
	return m.closeErr
}
