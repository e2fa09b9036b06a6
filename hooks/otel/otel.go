// Package otelhooks records cache events as OpenTelemetry metrics.
package otelhooks

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	MetricLookups        = "tiercache.lookups"
	MetricErrors         = "tiercache.errors"
	MetricSelfHeals      = "tiercache.self_heals"
	MetricLoaderCalls    = "tiercache.loader.calls"
	MetricLoaderDuration = "tiercache.loader.duration_ms"
)

// Hooks counts lookups by result, errors by tier and operation, self heals
// and loader calls, and records loader latency.
type Hooks struct {
	base []attribute.KeyValue

	lookups   metric.Int64Counter
	errors    metric.Int64Counter
	selfHeals metric.Int64Counter
	loads     metric.Int64Counter
	loadHist  metric.Float64Histogram
}

var _ tiercache.Hooks = (*Hooks)(nil)

// New creates the instruments on meter. cache, if non-empty, is attached to
// every measurement as the "cache" attribute.
func New(meter metric.Meter, cache string) (*Hooks, error) {
	h := &Hooks{}
	if cache != "" {
		h.base = []attribute.KeyValue{attribute.String("cache", cache)}
	}

	var err error
	if h.lookups, err = meter.Int64Counter(MetricLookups,
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if h.errors, err = meter.Int64Counter(MetricErrors,
		metric.WithDescription("Failed cache operations by tier and operation"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if h.selfHeals, err = meter.Int64Counter(MetricSelfHeals,
		metric.WithDescription("Undecodable entries removed"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if h.loads, err = meter.Int64Counter(MetricLoaderCalls,
		metric.WithDescription("Loader invocations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if h.loadHist, err = meter.Float64Histogram(MetricLoaderDuration,
		metric.WithDescription("Loader duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hooks) attrs(kv ...attribute.KeyValue) metric.MeasurementOption {
	all := make([]attribute.KeyValue, 0, len(h.base)+len(kv))
	all = append(all, h.base...)
	all = append(all, kv...)
	return metric.WithAttributes(all...)
}

func (h *Hooks) lookup(result string) {
	h.lookups.Add(context.Background(), 1, h.attrs(attribute.String("result", result)))
}

func (h *Hooks) LocalHit(string)  { h.lookup("local_hit") }
func (h *Hooks) RemoteHit(string) { h.lookup("remote_hit") }
func (h *Hooks) Miss(string)      { h.lookup("miss") }

func (h *Hooks) RemoteError(op, _ string, _ error, propagated bool) {
	h.errors.Add(context.Background(), 1, h.attrs(
		attribute.String("tier", "remote"),
		attribute.String("op", op),
		attribute.Bool("propagated", propagated),
	))
}

func (h *Hooks) LocalError(op, _ string, _ error) {
	h.errors.Add(context.Background(), 1, h.attrs(
		attribute.String("tier", "local"),
		attribute.String("op", op),
		attribute.Bool("propagated", false),
	))
}

func (h *Hooks) LoaderCalled(_ string, took time.Duration, err error) {
	ctx := context.Background()
	opt := h.attrs(attribute.Bool("error", err != nil))
	h.loads.Add(ctx, 1, opt)
	h.loadHist.Record(ctx, float64(took)/float64(time.Millisecond), opt)
}

func (h *Hooks) SelfHeal(_ string, reason string) {
	h.selfHeals.Add(context.Background(), 1, h.attrs(attribute.String("reason", reason)))
}
