// Package memory provides map-backed stores for development, tests and
// single-process deployments. Remote here is not distributed: it exists so a
// cache can run without a network store and so tests can observe the exact
// bytes and TTLs the cache writes.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

type store struct {
	mu         sync.Mutex
	m          map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

func (s *store) init(defaultTTL time.Duration) {
	s.m = make(map[string]entry)
	s.defaultTTL = defaultTTL
	s.now = time.Now
}

func (s *store) deadline(ttl time.Duration) time.Time {
	if ttl < 0 {
		ttl = s.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

// caller holds mu
func (s *store) lookup(key string) (entry, bool) {
	e, ok := s.m[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		delete(s.m, key)
		return entry{}, false
	}
	return e, true
}

func (s *store) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	return e.v, true
}

func (s *store) set(key string, v []byte, ttl time.Duration) {
	s.mu.Lock()
	s.m[key] = entry{v: v, exp: s.deadline(ttl)}
	s.mu.Unlock()
}

func (s *store) add(key string, v []byte, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); ok {
		return false
	}
	s.m[key] = entry{v: v, exp: s.deadline(ttl)}
	return true
}

func (s *store) del(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(key)
	delete(s.m, key)
	return ok
}

func (s *store) flush(prefix string) {
	p := prefix + ":"
	s.mu.Lock()
	for k := range s.m {
		if strings.HasPrefix(k, p) {
			delete(s.m, k)
		}
	}
	s.mu.Unlock()
}

func (s *store) clear() {
	s.mu.Lock()
	s.m = make(map[string]entry)
	s.mu.Unlock()
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Remote is an in-process provider.Remote. Methods return ctx.Err() when ctx
// is already done.
type Remote struct {
	store
}

var _ pr.Remote = (*Remote)(nil)

// NewRemote returns an empty Remote. defaultTTL applies to
// provider.BackendDefault writes; 0 => no expiry.
func NewRemote(defaultTTL time.Duration) *Remote {
	r := &Remote{}
	r.init(defaultTTL)
	return r
}

func (r *Remote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, ok := r.get(key)
	return b, ok, nil
}

func (r *Remote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.set(key, value, ttl)
	return true, nil
}

func (r *Remote) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.add(key, value, ttl), nil
}

func (r *Remote) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.del(key), nil
}

func (r *Remote) Flush(ctx context.Context, prefix string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.flush(prefix)
	return true, nil
}

func (r *Remote) Close(context.Context) error { return nil }

// Len reports stored entries, expired ones included until they are touched.
func (r *Remote) Len() int { return r.len() }

// Local is an in-process provider.Local without eviction.
type Local struct {
	store
}

var _ pr.Local = (*Local)(nil)

func NewLocal() *Local {
	l := &Local{}
	l.init(0)
	return l
}

func (l *Local) Get(key string) ([]byte, bool, error) {
	b, ok := l.get(key)
	return b, ok, nil
}

func (l *Local) Set(key string, value []byte, ttl time.Duration) error {
	l.set(key, value, ttl)
	return nil
}

func (l *Local) Delete(key string) error {
	l.del(key)
	return nil
}

func (l *Local) Clear() error {
	l.clear()
	return nil
}

func (l *Local) Len() int { return l.len() }
