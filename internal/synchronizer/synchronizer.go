// Package synchronizer runs the background sync worker: it pulls the remote
// stream and invertebrate catalogues, merges them into the shared
// collections, downloads missing images and reports progress as events.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/benthic/benthic/internal/config"
	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/fetch"
	"github.com/benthic/benthic/internal/images"
	"github.com/benthic/benthic/internal/status"
	"github.com/benthic/benthic/internal/store"
	"github.com/benthic/benthic/internal/telemetry"
)

// Dependencies is the shared state a run works on. The collections are
// owned by the caller and mutated in place.
type Dependencies struct {
	Streams       *store.Collection[domain.Stream]
	Invertebrates *store.Collection[domain.Invertebrate]
	Images        *images.Store
	Persister     domain.Persister // Optional; nil keeps results in memory only
	Server        config.ServerConfig
}

// Synchronizer starts and supervises sync runs. At most one run is active.
type Synchronizer struct {
	deps Dependencies

	logger      *slog.Logger
	metrics     *telemetry.SyncMetrics
	statusStore *status.FileStore
	batchSize   int
	timeout     time.Duration
	eventBuffer int
	newFetcher  FetcherFactory

	group   singleflight.Group
	mu      sync.Mutex
	current *run
	last    domain.RunSummary
}

// New creates a synchronizer over deps.
func New(deps Dependencies, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		deps:        deps,
		logger:      slog.Default(),
		batchSize:   images.DefaultBatchSize,
		timeout:     fetch.DefaultTimeout,
		eventBuffer: defaultEventBuffer,
		newFetcher:  defaultFetcherFactory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type startResult struct {
	run     *run
	creator *int
}

// Start launches a run on its own goroutine. It returns false without doing
// anything when a run is already active. ctx bounds the whole run;
// cancelling it halts the run like Stop.
func (s *Synchronizer) Start(ctx context.Context) bool {
	token := new(int)
	v, _, _ := s.group.Do("start", func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.current != nil && !s.current.finished() {
			return startResult{run: s.current}, nil
		}
		r := s.newRun(ctx)
		s.current = r
		go s.execute(r)
		return startResult{run: r, creator: token}, nil
	})
	return v.(startResult).creator == token
}

// Stop asks the active run to halt. It never blocks.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r != nil {
		r.stop()
	}
}

// Wait blocks until the current run finishes and returns its exit status.
// Without a run it returns the status of the previous one.
func (s *Synchronizer) Wait() domain.ExitStatus {
	return s.WaitSummary().Status
}

// WaitSummary is Wait returning the full run summary.
func (s *Synchronizer) WaitSummary() domain.RunSummary {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return s.Last()
	}
	<-r.done
	return r.summary
}

// Running reports whether a run is active.
func (s *Synchronizer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.current.finished()
}

// Events returns the event channel of the current run, or nil before the
// first Start. It is closed after the run's Finished event.
func (s *Synchronizer) Events() <-chan domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.events
}

// Last returns the summary of the most recently finished run.
func (s *Synchronizer) Last() domain.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Synchronizer) newRun(parent context.Context) *run {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	return &run{
		id:     id,
		events: make(chan domain.Event, s.eventBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger.With("run", id),
		summary: domain.RunSummary{
			RunID: id,
		},
	}
}

// execute drives one run through the stage table and always finishes it.
func (s *Synchronizer) execute(r *run) {
	defer close(r.done)
	defer r.cancel()

	r.summary.StartedAt = time.Now()
	r.emit(domain.Started{RunID: r.id, At: r.summary.StartedAt})
	r.logger.Info("sync started")
	if s.statusStore != nil {
		if err := s.statusStore.MarkStarted(r.id, r.summary.StartedAt); err != nil {
			r.logger.Warn("failed to record run start", "error", err)
		}
	}

	exit, cause := s.runStages(r)
	if exit != domain.ExitFailedRuntime || r.dirty {
		exit, cause = s.finalize(r, exit, cause)
	}

	s.finish(r, exit, cause)
}

func (s *Synchronizer) runStages(r *run) (domain.ExitStatus, error) {
	if err := s.checkDependencies(); err != nil {
		r.summary.Message = err.Error()
		r.status("Internal error: " + err.Error())
		return domain.ExitFailedRuntime, err
	}

	f := s.newFetcher(fetch.Options{Timeout: s.timeout, Logger: r.logger})
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Debug("failed to close fetcher", "error", err)
		}
	}()

	for _, st := range stageTable {
		if r.halted() {
			return domain.ExitHalted, nil
		}
		r.stage = st.stage
		r.status(st.message)

		err := st.run(s, r, f)
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrHalted) {
			return domain.ExitHalted, nil
		}

		r.summary.Message = err.Error()
		if fetch.IsNetworkFailure(err) {
			r.status("Network error: " + err.Error())
			return domain.ExitFailedNetwork, err
		}
		r.status("Internal error: " + err.Error())
		return domain.ExitFailedRuntime, err
	}

	if r.halted() {
		return domain.ExitHalted, nil
	}
	return domain.ExitSucceeded, nil
}

func (s *Synchronizer) checkDependencies() error {
	switch {
	case s.deps.Streams == nil:
		return fmt.Errorf("%w: stream collection", domain.ErrMissingState)
	case s.deps.Invertebrates == nil:
		return fmt.Errorf("%w: invertebrate collection", domain.ErrMissingState)
	case s.deps.Images == nil:
		return fmt.Errorf("%w: image store", domain.ErrMissingState)
	case s.deps.Server.BaseURL == "":
		return fmt.Errorf("%w: server base url", domain.ErrMissingState)
	}
	return nil
}

// finalize persists whatever the run merged. A save failure turns a
// successful run into a runtime failure; other outcomes are kept.
func (s *Synchronizer) finalize(r *run, exit domain.ExitStatus, cause error) (domain.ExitStatus, error) {
	r.stage = domain.StageFinalizing
	r.status("Saving data")

	if err := s.persist(r, exit == domain.ExitSucceeded); err != nil {
		r.logger.Error("failed to save data", "error", err)
		if exit == domain.ExitSucceeded {
			r.summary.Message = err.Error()
			r.status("Internal error: " + err.Error())
			return domain.ExitFailedRuntime, err
		}
	}
	return exit, cause
}

func (s *Synchronizer) persist(r *run, succeeded bool) error {
	p := s.deps.Persister
	if p == nil {
		return nil
	}

	var errs []error
	if r.dirty {
		if err := p.SaveStreams(s.deps.Streams.Snapshot()); err != nil {
			errs = append(errs, err)
		}
		if err := p.SaveInvertebrates(s.deps.Invertebrates.Snapshot()); err != nil {
			errs = append(errs, err)
		}
	}
	if r.about != "" {
		if err := p.SaveAbout(r.about); err != nil {
			errs = append(errs, err)
		}
	}
	if succeeded {
		if err := p.SetLastUpdate(time.Now()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// finish emits the terminal event, closes the channel and records the run.
func (s *Synchronizer) finish(r *run, exit domain.ExitStatus, cause error) {
	r.stage = domain.StageDone
	r.summary.Status = exit
	r.summary.FinishedAt = time.Now()
	if s.deps.Streams != nil {
		r.summary.Streams = s.deps.Streams.Len()
	}
	if s.deps.Invertebrates != nil {
		r.summary.Invertebrates = s.deps.Invertebrates.Len()
	}

	// Metrics and status use a fresh context; the run's own may be cancelled.
	ctx := context.WithoutCancel(r.ctx)
	s.metrics.RecordRun(ctx, r.summary.Duration(), exit.String())
	if s.statusStore != nil {
		if err := s.statusStore.Record(r.summary); err != nil {
			r.logger.Warn("failed to record run status", "error", err)
		}
	}

	r.logger.Info("sync finished",
		"status", exit.String(),
		"duration", r.summary.Duration(),
		"streams_merged", r.summary.StreamsMerged,
		"invertebrates_merged", r.summary.InvertebratesMerged,
		"images_downloaded", r.summary.ImagesDownloaded)

	s.mu.Lock()
	s.last = r.summary
	s.mu.Unlock()

	r.emit(domain.Finished{RunID: r.id, Status: exit, Err: cause})
	close(r.events)
}
