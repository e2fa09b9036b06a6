// Package keylock hands out read/write locks from a fixed table indexed by
// key hash. The table is allocated once; keys that collide share a lock.
//
// Locks are process-local. They serialize callers within one process only.
package keylock

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultExponent = 11
	MaxExponent     = 24

	// writer weight; readers take 1 each
	maxReaders = 1 << 30
)

// Provider returns the lock guarding a key. The same key must always map to
// the same lock for the lifetime of the provider.
type Provider interface {
	LockFor(key any) *RWLock
}

// RWLock is a reader/writer lock whose acquisition honors context
// cancellation. The zero value is not usable; locks come from a Striped table.
type RWLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *RWLock {
	return &RWLock{sem: semaphore.NewWeighted(maxReaders)}
}

// Lock acquires the lock exclusively. It returns ctx.Err() if ctx is done
// before the lock is obtained; the lock is not held in that case.
func (l *RWLock) Lock(ctx context.Context) error { return l.sem.Acquire(ctx, maxReaders) }

func (l *RWLock) Unlock() { l.sem.Release(maxReaders) }

// TryLock acquires the lock exclusively without blocking.
func (l *RWLock) TryLock() bool { return l.sem.TryAcquire(maxReaders) }

func (l *RWLock) RLock(ctx context.Context) error { return l.sem.Acquire(ctx, 1) }

func (l *RWLock) RUnlock() { l.sem.Release(1) }

// Striped is a Provider backed by 2^exponent locks.
type Striped struct {
	locks []*RWLock
	mask  uint64
}

var _ Provider = (*Striped)(nil)

// New allocates 2^exponent locks. A negative exponent selects DefaultExponent;
// exponents above MaxExponent are clamped.
func New(exponent int) *Striped {
	if exponent < 0 {
		exponent = DefaultExponent
	}
	if exponent > MaxExponent {
		exponent = MaxExponent
	}
	n := 1 << exponent
	s := &Striped{
		locks: make([]*RWLock, n),
		mask:  uint64(n - 1),
	}
	for i := range s.locks {
		s.locks[i] = newRWLock()
	}
	return s
}

// NewDefault is New(DefaultExponent).
func NewDefault() *Striped { return New(DefaultExponent) }

// Len reports the number of locks in the table.
func (s *Striped) Len() int { return len(s.locks) }

func (s *Striped) LockFor(key any) *RWLock {
	return s.locks[s.index(key)]
}

func (s *Striped) index(key any) int {
	if key == nil {
		return 0
	}
	return int(hashKey(key) & s.mask)
}

func hashKey(key any) uint64 {
	switch k := key.(type) {
	case string:
		return xxhash.Sum64String(k)
	case []byte:
		return xxhash.Sum64(k)
	case fmt.Stringer:
		return xxhash.Sum64String(k.String())
	default:
		return xxhash.Sum64String(fmt.Sprint(k))
	}
}
