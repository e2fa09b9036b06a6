package tiercache

import (
	"context"
	"errors"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/provider/memory"
)

var errBackend = errors.New("backend down")

// fakeRemote wraps memory.Remote with failure injection, latency and call
// counters.
type fakeRemote struct {
	mem *memory.Remote

	mu       sync.Mutex
	fail     map[string]error // op -> error; "*" applies to all ops
	delay    time.Duration
	rejected bool // Set reports not stored
	calls    map[string]int
	lastTTL  time.Duration
	closed   int
}

var _ pr.Remote = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		mem:   memory.NewRemote(0),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeRemote) failOn(op string, err error) {
	f.mu.Lock()
	f.fail[op] = err
	f.mu.Unlock()
}

func (f *fakeRemote) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	if err == nil {
		err = f.fail["*"]
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := f.enter(ctx, "get"); err != nil {
		return nil, false, err
	}
	return f.mem.Get(ctx, key)
}

func (f *fakeRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := f.enter(ctx, "set"); err != nil {
		return false, err
	}
	f.mu.Lock()
	f.lastTTL = ttl
	rejected := f.rejected
	f.mu.Unlock()
	if rejected {
		return false, nil
	}
	return f.mem.Set(ctx, key, value, ttl)
}

func (f *fakeRemote) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := f.enter(ctx, "add"); err != nil {
		return false, err
	}
	return f.mem.Add(ctx, key, value, ttl)
}

func (f *fakeRemote) Delete(ctx context.Context, key string) (bool, error) {
	if err := f.enter(ctx, "delete"); err != nil {
		return false, err
	}
	return f.mem.Delete(ctx, key)
}

func (f *fakeRemote) Flush(ctx context.Context, prefix string) (bool, error) {
	if err := f.enter(ctx, "flush"); err != nil {
		return false, err
	}
	return f.mem.Flush(ctx, prefix)
}

func (f *fakeRemote) Close(context.Context) error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

// failingLocal fails every call.
type failingLocal struct{}

func (failingLocal) Get(string) ([]byte, bool, error)         { return nil, false, errBackend }
func (failingLocal) Set(string, []byte, time.Duration) error { return errBackend }
func (failingLocal) Delete(string) error                     { return errBackend }
func (failingLocal) Clear() error                            { return errBackend }

type hookEvent struct {
	name       string
	key        string
	propagated bool
}

type recordingHooks struct {
	mu     sync.Mutex
	events []hookEvent
}

func (h *recordingHooks) add(e hookEvent) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *recordingHooks) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if e.name == name {
			n++
		}
	}
	return n
}

func (h *recordingHooks) LocalHit(k string)  { h.add(hookEvent{name: "local_hit", key: k}) }
func (h *recordingHooks) RemoteHit(k string) { h.add(hookEvent{name: "remote_hit", key: k}) }
func (h *recordingHooks) Miss(k string)      { h.add(hookEvent{name: "miss", key: k}) }
func (h *recordingHooks) RemoteError(_, k string, _ error, propagated bool) {
	h.add(hookEvent{name: "remote_error", key: k, propagated: propagated})
}
func (h *recordingHooks) LocalError(_, k string, _ error) {
	h.add(hookEvent{name: "local_error", key: k})
}
func (h *recordingHooks) LoaderCalled(k string, _ time.Duration, _ error) {
	h.add(hookEvent{name: "loader", key: k})
}
func (h *recordingHooks) SelfHeal(k, _ string) { h.add(hookEvent{name: "self_heal", key: k}) }

type logLine struct {
	level string
	msg   string
	f     Fields
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) log(level, msg string, f Fields) {
	l.mu.Lock()
	l.lines = append(l.lines, logLine{level, msg, f})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, f Fields) { l.log("debug", msg, f) }
func (l *recordingLogger) Info(msg string, f Fields)  { l.log("info", msg, f) }
func (l *recordingLogger) Warn(msg string, f Fields)  { l.log("warn", msg, f) }
func (l *recordingLogger) Error(msg string, f Fields) { l.log("error", msg, f) }

func (l *recordingLogger) find(level, msg string) (logLine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ln := range l.lines {
		if ln.level == level && ln.msg == msg {
			return ln, true
		}
	}
	return logLine{}, false
}
