package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

func newTestRedis(t *testing.T, cfg Config) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg.Client = client
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return mr, p
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{}); err != ErrNilClient {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	_, p := newTestRedis(t, Config{})

	if _, ok, err := p.Get(ctx, "svc-user:1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "svc-user:1", []byte("v"), time.Minute); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "svc-user:1")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("Get: b=%q ok=%v err=%v", b, ok, err)
	}
	if found, err := p.Delete(ctx, "svc-user:1"); err != nil || !found {
		t.Fatalf("Delete: found=%v err=%v", found, err)
	}
	if found, err := p.Delete(ctx, "svc-user:1"); err != nil || found {
		t.Fatalf("second Delete: found=%v err=%v", found, err)
	}
}

func TestAddOnlyCreates(t *testing.T) {
	ctx := context.Background()
	_, p := newTestRedis(t, Config{})

	if created, err := p.Add(ctx, "k", []byte("first"), 0); err != nil || !created {
		t.Fatalf("Add new: created=%v err=%v", created, err)
	}
	if created, err := p.Add(ctx, "k", []byte("second"), 0); err != nil || created {
		t.Fatalf("Add existing: created=%v err=%v", created, err)
	}
	b, _, _ := p.Get(ctx, "k")
	if string(b) != "first" {
		t.Fatalf("Add overwrote value: %q", b)
	}
}

func TestTTLConventions(t *testing.T) {
	ctx := context.Background()
	mr, p := newTestRedis(t, Config{DefaultTTL: 30 * time.Second})

	_, _ = p.Set(ctx, "never", []byte("x"), pr.NoExpiry)
	_, _ = p.Set(ctx, "default", []byte("x"), pr.BackendDefault)
	_, _ = p.Set(ctx, "explicit", []byte("x"), 5*time.Second)

	if ttl := mr.TTL("never"); ttl != 0 {
		t.Fatalf("never: ttl=%v", ttl)
	}
	if ttl := mr.TTL("default"); ttl != 30*time.Second {
		t.Fatalf("default: ttl=%v", ttl)
	}
	if ttl := mr.TTL("explicit"); ttl != 5*time.Second {
		t.Fatalf("explicit: ttl=%v", ttl)
	}

	mr.FastForward(6 * time.Second)
	if _, ok, _ := p.Get(ctx, "explicit"); ok {
		t.Fatalf("explicit entry should have expired")
	}
}

func TestFlushIsScopedToPrefix(t *testing.T) {
	ctx := context.Background()
	_, p := newTestRedis(t, Config{ScanCount: 2})

	for _, k := range []string{"beta-user:1", "beta-user:2", "beta-user:3", "beta-users:1", "other:1"} {
		if _, err := p.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}
	if ok, err := p.Flush(ctx, "beta-user"); err != nil || !ok {
		t.Fatalf("Flush: ok=%v err=%v", ok, err)
	}
	for _, k := range []string{"beta-user:1", "beta-user:2", "beta-user:3"} {
		if _, ok, _ := p.Get(ctx, k); ok {
			t.Fatalf("%s should be flushed", k)
		}
	}
	for _, k := range []string{"beta-users:1", "other:1"} {
		if _, ok, _ := p.Get(ctx, k); !ok {
			t.Fatalf("%s outside the prefix must survive", k)
		}
	}
}

func TestFlushManyPagesLeavesNothing(t *testing.T) {
	ctx := context.Background()
	mr, p := newTestRedis(t, Config{ScanCount: 5})

	const n = 53
	for i := 0; i < n; i++ {
		if _, err := p.Set(ctx, fmt.Sprintf("svcusers:%d", i), []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = p.Set(ctx, "svcorders:1", []byte("v"), 0)

	if ok, err := p.Flush(ctx, "svcusers"); err != nil || !ok {
		t.Fatalf("Flush: ok=%v err=%v", ok, err)
	}
	var survived int
	for i := 0; i < n; i++ {
		if _, ok, _ := p.Get(ctx, fmt.Sprintf("svcusers:%d", i)); ok {
			survived++
		}
	}
	if survived != 0 {
		t.Fatalf("%d/%d keys survived Flush", survived, n)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "svcorders:1" {
		t.Fatalf("remaining keys=%v want [svcorders:1]", keys)
	}
}

func TestFlushEscapesGlob(t *testing.T) {
	ctx := context.Background()
	_, p := newTestRedis(t, Config{})

	_, _ = p.Set(ctx, "a*:1", []byte("v"), 0)
	_, _ = p.Set(ctx, "ab:1", []byte("v"), 0)
	if _, err := p.Flush(ctx, "a*"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Get(ctx, "ab:1"); !ok {
		t.Fatalf("glob metacharacters in prefix must be literal")
	}
	if _, ok, _ := p.Get(ctx, "a*:1"); ok {
		t.Fatalf("literal prefix key should be flushed")
	}
}

func TestGetReportsTransportError(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	p, err := New(Config{Client: client})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error with server unreachable")
	}
}

func TestCloseOwnership(t *testing.T) {
	_, p := newTestRedis(t, Config{CloseClient: true})
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("second Close must be a no-op: %v", err)
	}
}
