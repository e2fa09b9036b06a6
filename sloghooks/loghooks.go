// Package sloghooks logs cache events through log/slog with sampling and key
// redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/tiercache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	MissEvery     uint64
	SwallowEvery  uint64
	SelfHealEvery uint64
	// Log hits at debug. Off by default since hits are the hot path.
	LogHits bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	missCtr     atomic.Uint64
	swallowCtr  atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) LocalHit(k string) {
	if h.l == nil || !h.opts.LogHits {
		return
	}
	h.l.Debug("tiercache.local_hit", "key", h.redact(k))
}

func (h *Hooks) RemoteHit(k string) {
	if h.l == nil || !h.opts.LogHits {
		return
	}
	h.l.Debug("tiercache.remote_hit", "key", h.redact(k))
}

func (h *Hooks) Miss(k string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("tiercache.miss", "key", h.redact(k))
}

// RemoteError logs propagated errors at warn and sampled swallowed ones at info.
func (h *Hooks) RemoteError(op, k string, err error, propagated bool) {
	if h.l == nil {
		return
	}
	if propagated {
		h.l.Warn("tiercache.remote_error",
			"op", op,
			"key", h.redact(k),
			"err", err)
		return
	}
	if !sample(h.opts.SwallowEvery, &h.swallowCtr) {
		return
	}
	h.l.Info("tiercache.remote_error_swallowed",
		"op", op,
		"key", h.redact(k),
		"err", err)
}

func (h *Hooks) LocalError(op, k string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.local_error",
		"op", op,
		"key", h.redact(k),
		"err", err)
}

func (h *Hooks) LoaderCalled(k string, took time.Duration, err error) {
	if h.l == nil {
		return
	}
	if err != nil {
		h.l.Warn("tiercache.loader_failed",
			"key", h.redact(k),
			"took", took,
			"err", err)
		return
	}
	h.l.Debug("tiercache.loader_called",
		"key", h.redact(k),
		"took", took)
}

func (h *Hooks) SelfHeal(k, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Warn("tiercache.self_heal",
		"key", h.redact(k),
		"reason", reason)
}
