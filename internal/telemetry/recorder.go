// Package telemetry records sitefs operation metrics against the global
// OpenTelemetry MeterProvider. Nothing is exported unless the embedding
// program installs a provider; the default is a no-op.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/taigrr/sitefs"

// instruments holds the lazily registered metric instruments.
type instruments struct {
	opsTotal     metric.Int64Counter
	entriesTotal metric.Int64Counter
	durationHist metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     instruments
)

// initInstruments registers the instruments against the current global
// MeterProvider on first use.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterName)

		inst.opsTotal, _ = m.Int64Counter("sitefs.ops.total",
			metric.WithDescription("Total filesystem operations"),
		)
		inst.entriesTotal, _ = m.Int64Counter("sitefs.entries.total",
			metric.WithDescription("Total entries produced by tree operations"),
		)
		inst.durationHist, _ = m.Float64Histogram("sitefs.op.duration_ms",
			metric.WithDescription("Operation latency in milliseconds"),
			metric.WithUnit("ms"),
		)
	})
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordOp records one completed operation. entries is the number of
// relative paths a tree operation returned; pass 0 for single-file ops.
func RecordOp(ctx context.Context, op string, entries int, elapsed time.Duration, err error) {
	initInstruments()
	// Record even when the caller's context is already cancelled.
	ctx = context.WithoutCancel(ctx)

	opAttr := attribute.String("op", op)
	inst.opsTotal.Add(ctx, 1,
		metric.WithAttributes(opAttr, attribute.String("status", statusStr(err))),
	)
	if entries > 0 {
		inst.entriesTotal.Add(ctx, int64(entries), metric.WithAttributes(opAttr))
	}
	inst.durationHist.Record(ctx, float64(elapsed)/float64(time.Millisecond),
		metric.WithAttributes(opAttr),
	)
}
