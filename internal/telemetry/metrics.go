// Package telemetry provides OpenTelemetry instrumentation for sync runs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/benthic/benthic/sync"

// SyncMetrics holds the OpenTelemetry instruments for sync runs.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	runDuration     metric.Float64Histogram
	recordsMerged   metric.Int64Counter
	recordsRemoved  metric.Int64Counter
	imagesProcessed metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"benthic_sync_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	recordsMerged, err := meter.Int64Counter(
		"benthic_sync_records_merged_total",
		metric.WithDescription("Records inserted or updated by sync runs"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	recordsRemoved, err := meter.Int64Counter(
		"benthic_sync_records_removed_total",
		metric.WithDescription("Records removed because the remote no longer lists them"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	imagesProcessed, err := meter.Int64Counter(
		"benthic_sync_images_total",
		metric.WithDescription("Image downloads attempted, by result"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runDuration:     runDuration,
		recordsMerged:   recordsMerged,
		recordsRemoved:  recordsRemoved,
		imagesProcessed: imagesProcessed,
	}, nil
}

// RecordRun records the duration and outcome of a run
func (m *SyncMetrics) RecordRun(ctx context.Context, duration time.Duration, status string) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}

// RecordMerged counts merged records for a collection
func (m *SyncMetrics) RecordMerged(ctx context.Context, collection string, n int) {
	if m == nil || m.recordsMerged == nil || n == 0 {
		return
	}
	m.recordsMerged.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("collection", collection)))
}

// RecordRemoved counts removed records for a collection
func (m *SyncMetrics) RecordRemoved(ctx context.Context, collection string, n int) {
	if m == nil || m.recordsRemoved == nil || n == 0 {
		return
	}
	m.recordsRemoved.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("collection", collection)))
}

// RecordImage counts one attempted image download
func (m *SyncMetrics) RecordImage(ctx context.Context, success bool) {
	if m == nil || m.imagesProcessed == nil {
		return
	}
	m.imagesProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("success", success)))
}
