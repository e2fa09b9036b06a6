package ristretto

import (
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

// Provider is a Local tier backed by Ristretto. Entry cost is the value length
// unless Config.Cost is set.
type Provider struct {
	c          *rc.Cache
	cost       func(key string, value []byte) int64
	syncWrites bool
}

var _ pr.Local = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost overrides the per-entry cost; nil => len(value).
	Cost func(key string, value []byte) int64
	// SyncWrites waits for buffered writes to apply before Set returns, so a
	// Get right after Set observes the value. Costs write throughput.
	SyncWrites bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	cost := cfg.Cost
	if cost == nil {
		cost = func(_ string, v []byte) int64 { return int64(len(v)) }
	}
	return &Provider{c: c, cost: cost, syncWrites: cfg.SyncWrites}, nil
}

func (p *Provider) Get(key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set treats ttl <= 0 as no expiry.
func (p *Provider) Set(key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if !p.c.SetWithTTL(key, value, p.cost(key, value), ttl) {
		return pr.ErrRejected
	}
	if p.syncWrites {
		p.c.Wait()
	}
	return nil
}

func (p *Provider) Delete(key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Clear() error {
	p.c.Clear()
	return nil
}

// Close stops Ristretto's background goroutines. Not part of provider.Local.
func (p *Provider) Close() {
	p.c.Wait()
	p.c.Close()
}

// Metrics exposes Ristretto counters when Config.Metrics is set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
