package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const defaultScanCount = 512

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	defaultTTL  time.Duration
	scanCount   int64
}

var _ pr.Remote = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool          // set true only if this provider exclusively owns the client
	DefaultTTL  time.Duration // applied for provider.BackendDefault; 0 => no expiry
	ScanCount   int64         // SCAN batch hint for Flush; 0 => 512
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	sc := cfg.ScanCount
	if sc <= 0 {
		sc = defaultScanCount
	}
	return &Redis{
		rdb:         cfg.Client,
		closeClient: cfg.CloseClient,
		defaultTTL:  cfg.DefaultTTL,
		scanCount:   sc,
	}, nil
}

func (p *Redis) ttl(ttl time.Duration) time.Duration {
	if ttl < 0 {
		ttl = p.defaultTTL
	}
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := p.rdb.Set(ctx, key, value, p.ttl(ttl)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.rdb.SetNX(ctx, key, value, p.ttl(ttl)).Result()
}

func (p *Redis) Delete(ctx context.Context, key string) (bool, error) {
	n, err := p.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Flush deletes prefix + ":*". Each node is scanned to completion before
// anything is deleted, so deletes never move the SCAN cursor. On a cluster
// client every master is flushed, one key per DEL since keys of one node can
// still span slots.
func (p *Redis) Flush(ctx context.Context, prefix string) (bool, error) {
	match := escapeGlob(prefix) + ":*"
	if cc, ok := p.rdb.(*goredis.ClusterClient); ok {
		err := cc.ForEachMaster(ctx, func(ctx context.Context, node *goredis.Client) error {
			return p.flushNode(ctx, node, match, 1)
		})
		return err == nil, err
	}
	err := p.flushNode(ctx, p.rdb, match, int(p.scanCount))
	return err == nil, err
}

func (p *Redis) flushNode(ctx context.Context, c goredis.Cmdable, match string, batch int) error {
	keys, err := p.scanAll(ctx, c, match)
	if err != nil {
		return err
	}
	for len(keys) > 0 {
		n := min(batch, len(keys))
		if err := c.Del(ctx, keys[:n]...).Err(); err != nil {
			return err
		}
		keys = keys[n:]
	}
	return nil
}

func (p *Redis) scanAll(ctx context.Context, c goredis.Cmdable, match string) ([]string, error) {
	var (
		cursor uint64
		all    []string
	)
	for {
		keys, next, err := c.Scan(ctx, cursor, match, p.scanCount).Result()
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		if next == 0 {
			return all, nil
		}
		cursor = next
	}
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globReplacer.Replace(s) }
