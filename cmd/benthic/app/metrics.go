package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/benthic/benthic/internal/telemetry"
)

// runMeters collects the metrics of one CLI sync in memory. There is no
// exporter; the collected values are written to the log when the run ends.
type runMeters struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	sync     *telemetry.SyncMetrics
}

func newRunMeters() (*runMeters, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewSyncMetrics(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	return &runMeters{reader: reader, provider: provider, sync: m}, nil
}

// log writes every collected data point at debug level
func (m *runMeters) log(ctx context.Context, logger *slog.Logger) {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		logger.Warn("failed to collect metrics", "error", err)
		return
	}

	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			switch data := metric.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					logger.Debug("metric", "name", metric.Name, "value", dp.Value, "attributes", dp.Attributes.Encoded(attribute.DefaultEncoder()))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					logger.Debug("metric", "name", metric.Name, "count", dp.Count, "sum", dp.Sum, "attributes", dp.Attributes.Encoded(attribute.DefaultEncoder()))
				}
			}
		}
	}
}

func (m *runMeters) shutdown(ctx context.Context, logger *slog.Logger) {
	if err := m.provider.Shutdown(ctx); err != nil {
		logger.Warn("failed to shut down meter provider", "error", err)
	}
}
