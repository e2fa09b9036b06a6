package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedactsKeys(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTestLogger(&buf), Options{})

	h.SelfHeal("svc:users:secret", "corrupt")
	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Fatalf("key leaked: %q", out)
	}
	if !strings.Contains(out, "tiercache.self_heal") || !strings.Contains(out, "reason=corrupt") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCustomRedact(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTestLogger(&buf), Options{Redact: func(string) string { return "XX" }})
	h.LocalError("set", "k", errors.New("full"))
	if !strings.Contains(buf.String(), "key=XX") {
		t.Fatalf("redactor not used: %q", buf.String())
	}
}

func TestSampling(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTestLogger(&buf), Options{MissEvery: 3})
	for i := 0; i < 9; i++ {
		h.Miss("k")
	}
	if n := strings.Count(buf.String(), "tiercache.miss"); n != 3 {
		t.Fatalf("sampled misses=%d want 3", n)
	}
}

func TestRemoteErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTestLogger(&buf), Options{})
	h.RemoteError("get", "k", errors.New("down"), true)
	h.RemoteError("put", "k", errors.New("down"), false)

	out := buf.String()
	if !strings.Contains(out, "level=WARN msg=tiercache.remote_error ") {
		t.Fatalf("propagated error not at warn: %q", out)
	}
	if !strings.Contains(out, "level=INFO msg=tiercache.remote_error_swallowed") {
		t.Fatalf("swallowed error not at info: %q", out)
	}
}

func TestHitsOffByDefaultAndNilLogger(t *testing.T) {
	var buf bytes.Buffer
	h := New(newTestLogger(&buf), Options{})
	h.LocalHit("k")
	h.RemoteHit("k")
	if buf.Len() != 0 {
		t.Fatalf("hits logged by default: %q", buf.String())
	}

	var nilHooks = New(nil, Options{})
	nilHooks.LoaderCalled("k", time.Millisecond, nil)
	nilHooks.SelfHeal("k", "corrupt")
}
