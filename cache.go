package tiercache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	c "github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/internal/wire"
	"github.com/unkn0wn-root/tiercache/keylock"
	pr "github.com/unkn0wn-root/tiercache/provider"
)

var (
	errNullValue = errors.New("null values are not allowed")
	errNilLoader = errors.New("loader is nil")
)

type cache[V any] struct {
	name      string
	ns        string
	serviceID string
	remote    pr.Remote
	local     pr.Local
	codec     c.Codec[V]
	cfg       Config
	locks     keylock.Provider
	policy    ErrorPolicy
	log       Logger
	hooks     Hooks

	timeout   time.Duration
	remoteTTL time.Duration
	localTTL  time.Duration

	closeRemote bool
	closeOnce   sync.Once
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Remote == nil {
		return nil, fmt.Errorf("%w: remote is required", ErrInvalidConfiguration)
	}
	if err := opts.Config.validate(opts.Name); err != nil {
		return nil, err
	}
	codec, err := resolveCodec(opts.Codec, opts.Config.codec)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	cc := &cache[V]{
		name:        opts.Name,
		ns:          cfg.namespace(opts.Name),
		serviceID:   cfg.serviceID,
		remote:      opts.Remote,
		local:       cfg.local,
		codec:       codec,
		cfg:         cfg,
		timeout:     cfg.timeout,
		remoteTTL:   cfg.remoteTTL(),
		localTTL:    cfg.localTTL(),
		closeRemote: opts.CloseRemote,
	}

	// defaults
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cc.locks = opts.Locks
	if cc.locks == nil {
		cc.locks = keylock.NewDefault()
	}
	cc.policy = ErrorPolicy{Propagate: cfg.propagateErrors, Logger: cc.log}
	return cc, nil
}

func resolveCodec[V any](typed c.Codec[V], configured any) (c.Codec[V], error) {
	if typed != nil {
		return typed, nil
	}
	if configured == nil {
		return c.Default[V](), nil
	}
	cv, ok := configured.(c.Codec[V])
	if !ok {
		var zero V
		return nil, fmt.Errorf("%w: operation codec %T does not encode %T",
			ErrInvalidConfiguration, configured, zero)
	}
	return cv, nil
}

func (cc *cache[V]) Name() string { return cc.name }

func (cc *cache[V]) Close(ctx context.Context) error {
	var err error
	cc.closeOnce.Do(func() {
		if cc.closeRemote {
			err = cc.remote.Close(ctx)
		}
	})
	return err
}

func (cc *cache[V]) BackendKey(key any) (string, error) {
	return cc.key("key", key)
}

func (cc *cache[V]) key(op string, key any) (string, error) {
	k, err := EncodeKey(cc.serviceID, cc.ns, key)
	if err != nil {
		return "", opErr(op, "", ErrInvalidKey, nil)
	}
	return k, nil
}

func (cc *cache[V]) Get(ctx context.Context, key any) (V, bool, error) {
	var zero V
	k, err := cc.key("get", key)
	if err != nil {
		return zero, false, err
	}
	if v, ok := cc.fromLocal(k); ok {
		return v, true, nil
	}
	v, ok, err := cc.fetch(ctx, "get", k)
	if err != nil {
		return zero, false, cc.fail(err)
	}
	if !ok {
		cc.hooks.Miss(k)
		return zero, false, nil
	}
	return v, true, nil
}

func (cc *cache[V]) GetOrLoad(ctx context.Context, key any, load Loader[V]) (V, error) {
	var zero V
	if load == nil {
		return zero, opErr("load", "", ErrInvalidArgument, errNilLoader)
	}
	k, err := cc.key("load", key)
	if err != nil {
		return zero, err
	}
	if v, ok := cc.fromLocal(k); ok {
		return v, nil
	}
	if v, ok, err := cc.fetch(ctx, "load", k); err != nil {
		if err := cc.fail(err); err != nil {
			return zero, err
		}
	} else if ok {
		return v, nil
	}

	l := cc.locks.LockFor(k)
	if err := l.Lock(ctx); err != nil {
		return zero, opErr("load", k, ErrInterrupted, err)
	}
	defer l.Unlock()

	// another caller may have loaded it while we waited
	if v, ok, err := cc.fetch(ctx, "load", k); err != nil {
		if err := cc.fail(err); err != nil {
			return zero, err
		}
	} else if ok {
		return v, nil
	}
	cc.hooks.Miss(k)

	start := time.Now()
	v, err := load(ctx)
	cc.hooks.LoaderCalled(k, time.Since(start), err)
	if err != nil {
		return zero, opErr("load", k, ErrValueRetrieval, err)
	}

	if isNil(v) && !cc.cfg.allowNull {
		cc.log.Debug("loader returned null; not cached", Fields{"key": k})
		return v, nil
	}
	if err := cc.put(ctx, "load", k, v); err != nil {
		return zero, err
	}
	return v, nil
}

func (cc *cache[V]) Put(ctx context.Context, key any, value V) error {
	k, err := cc.key("put", key)
	if err != nil {
		return err
	}
	return cc.put(ctx, "put", k, value)
}

func (cc *cache[V]) put(ctx context.Context, op, k string, value V) error {
	raw, err := cc.frame(op, k, value)
	if err != nil {
		return cc.fail(err)
	}
	ok, err := await(ctx, cc.timeout, func(ctx context.Context) (bool, error) {
		return cc.remote.Set(ctx, k, raw, cc.remoteTTL)
	})
	if err != nil {
		if err := cc.fail(cc.remoteErr(ctx, op, k, err)); err != nil {
			return err
		}
		if cc.cfg.forceLocal {
			cc.localSet(k, raw)
		}
		return nil
	}
	if !ok {
		cc.log.Debug("remote set not stored", Fields{"key": k})
	}
	if ok || cc.cfg.forceLocal {
		cc.localSet(k, raw)
	}
	return nil
}

func (cc *cache[V]) PutIfAbsent(ctx context.Context, key any, value V) (V, bool, error) {
	var zero V
	k, err := cc.key("add", key)
	if err != nil {
		return zero, false, err
	}
	raw, err := cc.frame("add", k, value)
	if err != nil {
		return zero, false, cc.fail(err)
	}
	created, err := await(ctx, cc.timeout, func(ctx context.Context) (bool, error) {
		return cc.remote.Add(ctx, k, raw, cc.remoteTTL)
	})
	if err != nil {
		if err := cc.fail(cc.remoteErr(ctx, "add", k, err)); err != nil {
			return zero, false, err
		}
		if cc.cfg.forceLocal {
			cc.localSet(k, raw)
		}
		return zero, false, nil
	}
	if created {
		cc.localSet(k, raw)
		return zero, false, nil
	}

	// Not atomic with the failed add; a concurrent write may be observed.
	prev, ok, err := cc.fetch(ctx, "add", k)
	if err != nil {
		return zero, false, cc.fail(err)
	}
	return prev, ok, nil
}

func (cc *cache[V]) Evict(ctx context.Context, key any) error {
	k, err := cc.key("evict", key)
	if err != nil {
		return err
	}
	cc.log.Debug("evicting key", Fields{"key": k})
	_, err = await(ctx, cc.timeout, func(ctx context.Context) (bool, error) {
		return cc.remote.Delete(ctx, k)
	})
	if err != nil {
		if err := cc.fail(cc.remoteErr(ctx, "evict", k, err)); err != nil {
			return err
		}
		if !cc.cfg.forceLocal {
			return nil
		}
	}
	cc.localDelete(k)
	return nil
}

func (cc *cache[V]) Clear(ctx context.Context) error {
	prefix := cc.serviceID + cc.ns
	cc.log.Debug("flushing namespace", Fields{"prefix": prefix})
	ok, err := await(ctx, cc.timeout, func(ctx context.Context) (bool, error) {
		return cc.remote.Flush(ctx, prefix)
	})
	if err != nil {
		if err := cc.fail(cc.remoteErr(ctx, "clear", prefix, err)); err != nil {
			return err
		}
		ok = false
	}
	if !ok {
		cc.log.Debug("remote flush not successful", Fields{"prefix": prefix})
	}
	if ok || cc.cfg.forceLocal {
		cc.localClear()
	}
	return nil
}

// fetch reads k from the remote store and decodes it. A hit refreshes the
// local tier. Returned errors are *OpError and have not been through the policy.
func (cc *cache[V]) fetch(ctx context.Context, op, k string) (V, bool, error) {
	var zero V
	raw, err := await(ctx, cc.timeout, func(ctx context.Context) ([]byte, error) {
		b, ok, err := cc.remote.Get(ctx, k)
		if err != nil || !ok {
			return nil, err
		}
		if b == nil {
			b = []byte{}
		}
		return b, nil
	})
	if err != nil {
		return zero, false, cc.remoteErr(ctx, op, k, err)
	}
	if raw == nil {
		return zero, false, nil
	}
	v, reason, err := cc.unframe(raw)
	if err != nil {
		cc.selfHeal(ctx, k, reason)
		return zero, false, opErr(op, k, ErrSerialization, err)
	}
	cc.hooks.RemoteHit(k)
	cc.localSet(k, raw)
	return v, true, nil
}

func (cc *cache[V]) frame(op, k string, v V) ([]byte, error) {
	if isNil(v) {
		if !cc.cfg.allowNull {
			return nil, opErr(op, k, ErrInvalidArgument, errNullValue)
		}
		return wire.EncodeNull(), nil
	}
	payload, err := cc.codec.Encode(v)
	if err != nil {
		return nil, opErr(op, k, ErrSerialization, err)
	}
	return wire.EncodeValue(payload), nil
}

func (cc *cache[V]) unframe(raw []byte) (V, string, error) {
	var zero V
	e, err := wire.Decode(raw)
	if err != nil {
		return zero, "corrupt", err
	}
	if e.Null {
		return zero, "", nil
	}
	v, err := cc.codec.Decode(e.Payload)
	if err != nil {
		return zero, "value_decode", err
	}
	return v, "", nil
}

// selfHeal drops an undecodable entry from both tiers, best effort.
func (cc *cache[V]) selfHeal(ctx context.Context, k, reason string) {
	cc.hooks.SelfHeal(k, reason)
	cc.localDelete(k)
	_, _ = await(ctx, cc.timeout, func(ctx context.Context) (bool, error) {
		return cc.remote.Delete(ctx, k)
	})
}

// remoteErr classifies a failed remote call. The caller's own cancellation
// is an interruption; our per-call deadline is a timeout.
func (cc *cache[V]) remoteErr(ctx context.Context, op, k string, err error) error {
	switch {
	case ctx.Err() != nil:
		return opErr(op, k, ErrInterrupted, ctx.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return opErr(op, k, ErrRemoteTimeout, err)
	default:
		return opErr(op, k, ErrRemoteOperation, err)
	}
}

// fail runs err through the policy and reports it to hooks.
func (cc *cache[V]) fail(err error) error {
	out := cc.policy.handle(err)
	var oe *OpError
	if errors.As(err, &oe) {
		cc.hooks.RemoteError(oe.Op, oe.Key, err, out != nil)
	}
	return out
}

func (cc *cache[V]) fromLocal(k string) (V, bool) {
	var zero V
	if cc.local == nil {
		return zero, false
	}
	raw, ok, err := cc.local.Get(k)
	if err != nil {
		cc.localFailed("get", k, err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, reason, err := cc.unframe(raw)
	if err != nil {
		cc.hooks.SelfHeal(k, reason)
		cc.localDelete(k)
		return zero, false
	}
	cc.hooks.LocalHit(k)
	return v, true
}

func (cc *cache[V]) localSet(k string, raw []byte) {
	if cc.local == nil {
		return
	}
	if err := cc.local.Set(k, raw, cc.localTTL); err != nil {
		cc.localFailed("set", k, err)
	}
}

func (cc *cache[V]) localDelete(k string) {
	if cc.local == nil {
		return
	}
	if err := cc.local.Delete(k); err != nil {
		cc.localFailed("delete", k, err)
	}
}

func (cc *cache[V]) localClear() {
	if cc.local == nil {
		return
	}
	if err := cc.local.Clear(); err != nil {
		cc.localFailed("clear", "", err)
	}
}

func (cc *cache[V]) localFailed(op, k string, err error) {
	cc.hooks.LocalError(op, k, err)
	cc.log.Debug("local tier error", Fields{"op": op, "key": k, "err": err.Error()})
}
