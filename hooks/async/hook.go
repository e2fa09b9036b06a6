// Package asynchook moves hook calls off the cache's hot path onto a bounded
// queue served by worker goroutines. Events are dropped when the queue is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{MissEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	users, _ := tiercache.New[*User](tiercache.Options[*User]{
//		Name:   "users",
//		Remote: remote,
//		Config: cfg,
//		Hooks:  hooks, // or raw if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/tiercache"
)

type Hooks struct {
	inner tiercache.Hooks
	q     chan func()
	wg    sync.WaitGroup

	mu      sync.RWMutex // guards closed against sends on q
	closed  bool
	dropped atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(inner tiercache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

// Dropped reports events lost to a full queue or a closed decorator.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) LocalHit(k string)  { h.try(func() { h.inner.LocalHit(k) }) }
func (h *Hooks) RemoteHit(k string) { h.try(func() { h.inner.RemoteHit(k) }) }
func (h *Hooks) Miss(k string)      { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) SelfHeal(k, r string) {
	h.try(func() { h.inner.SelfHeal(k, r) })
}
func (h *Hooks) RemoteError(op, k string, err error, propagated bool) {
	h.try(func() { h.inner.RemoteError(op, k, err, propagated) })
}
func (h *Hooks) LocalError(op, k string, err error) {
	h.try(func() { h.inner.LocalError(op, k, err) })
}
func (h *Hooks) LoaderCalled(k string, took time.Duration, err error) {
	h.try(func() { h.inner.LoaderCalled(k, took, err) })
}
