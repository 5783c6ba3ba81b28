package synchronizer

import (
	"log/slog"
	"time"

	"github.com/benthic/benthic/internal/fetch"
	"github.com/benthic/benthic/internal/status"
	"github.com/benthic/benthic/internal/telemetry"
)

// defaultEventBuffer is the capacity of each run's event channel.
const defaultEventBuffer = 256

// FetcherFactory creates the fetcher used by one run.
type FetcherFactory func(fetch.Options) Fetcher

// Fetcher is the per-run fetcher. It is closed when the run ends.
type Fetcher interface {
	fetch.Getter
	Close() error
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records run metrics. A nil value disables metrics.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// WithStatusStore records every run's outcome on disk.
func WithStatusStore(fs *status.FileStore) Option {
	return func(s *Synchronizer) {
		s.statusStore = fs
	}
}

// WithBatchSize sets the number of images downloaded between cancellation checks.
func WithBatchSize(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(s *Synchronizer) {
		if n > reservedEvents {
			s.eventBuffer = n
		}
	}
}

// WithFetcherFactory replaces how each run builds its fetcher.
func WithFetcherFactory(f FetcherFactory) Option {
	return func(s *Synchronizer) {
		if f != nil {
			s.newFetcher = f
		}
	}
}

func defaultFetcherFactory(opts fetch.Options) Fetcher {
	return fetch.New(opts)
}
