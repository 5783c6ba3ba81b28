package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/benthic/benthic/internal/config"
	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/images"
	"github.com/benthic/benthic/internal/log"
	"github.com/benthic/benthic/internal/status"
	"github.com/benthic/benthic/internal/store"
)

// env is the local state a command works on
type env struct {
	cfg    *config.Config
	logger *slog.Logger

	persister     *store.BoltPersister
	streams       *store.Collection[domain.Stream]
	invertebrates *store.Collection[domain.Invertebrate]
	images        *images.Store
	status        *status.FileStore

	closers []io.Closer
}

// loadConfig reads configuration and sets up file logging
func (o *rootOptions) loadConfig() (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.LoadConfig(o.v, o.configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
		closer = io.NopCloser(nil)
	}
	slog.SetDefault(logger)
	return cfg, logger, closer, nil
}

// openEnv loads configuration and opens the local stores. The collections
// are filled from the persisted snapshot.
func (o *rootOptions) openEnv() (*env, error) {
	cfg, logger, logCloser, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	if err := cfg.Validate(); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("%w (run `benthic config init --base-url URL`)", err)
	}

	if err := e.open(); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) open() error {
	persister, err := store.NewBoltPersister(e.cfg.Storage.DataDir, e.cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	e.persister = persister
	e.closers = append(e.closers, persister)

	streams, err := persister.LoadStreams()
	if err != nil {
		return fmt.Errorf("failed to load streams: %w", err)
	}
	invertebrates, err := persister.LoadInvertebrates()
	if err != nil {
		return fmt.Errorf("failed to load invertebrates: %w", err)
	}
	e.streams = store.NewCollection(streams...)
	e.invertebrates = store.NewCollection(invertebrates...)

	imgStore, err := images.OpenDirStore(e.cfg.Storage.ImageDir)
	if err != nil {
		return fmt.Errorf("failed to open image directory: %w", err)
	}
	e.images = imgStore
	e.closers = append(e.closers, imgStore)

	e.status = status.NewFileStore(e.cfg.Storage.DataDir)

	e.logger.Debug("local data loaded",
		"streams", e.streams.Len(),
		"invertebrates", e.invertebrates.Len(),
		"data_dir", e.cfg.Storage.DataDir)
	return nil
}

// Close releases everything in reverse order of opening
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if c := e.closers[i]; c != nil {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
