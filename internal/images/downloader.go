package images

import (
	"context"
	"errors"
	"log/slog"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/fetch"
)

// DefaultBatchSize is the number of images fetched between cancellation checks.
const DefaultBatchSize = 50

// ProgressFunc is called once per attempted image. err is nil on success.
type ProgressFunc func(done, total int, img domain.PendingImage, err error)

// Options configures a Downloader.
type Options struct {
	BatchSize  int
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Downloader fetches pending images one at a time and writes them to a Store.
type Downloader struct {
	getter     fetch.Getter
	store      *Store
	batchSize  int
	onProgress ProgressFunc
	logger     *slog.Logger
}

// NewDownloader creates a downloader. A non-positive batch size means DefaultBatchSize.
func NewDownloader(getter fetch.Getter, store *Store, opts Options) *Downloader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Downloader{
		getter:     getter,
		store:      store,
		batchSize:  opts.BatchSize,
		onProgress: opts.OnProgress,
		logger:     opts.Logger,
	}
}

// DownloadMissing downloads pending in sequential batches and returns the
// number stored successfully. A failed image is logged and skipped. ctx is
// checked after every batch; once it is done the partial count is returned.
func (d *Downloader) DownloadMissing(ctx context.Context, pending []domain.PendingImage) int {
	total := len(pending)
	succeeded, done := 0, 0

	for start := 0; start < total; start += d.batchSize {
		end := min(start+d.batchSize, total)

		for _, img := range pending[start:end] {
			err := d.downloadOne(ctx, img)
			if errors.Is(err, fetch.ErrCancelled) {
				d.logger.Info("image download halted", "succeeded", succeeded, "remaining", total-done)
				return succeeded
			}

			done++
			if err != nil {
				d.logger.Warn("failed to download image", "error", err, "image", img.ID, "url", img.URL)
			} else {
				succeeded++
			}
			if d.onProgress != nil {
				d.onProgress(done, total, img, err)
			}
		}

		if ctx.Err() != nil {
			d.logger.Info("image download halted after batch", "succeeded", succeeded, "remaining", total-done)
			return succeeded
		}
	}

	d.logger.Debug("image download complete", "succeeded", succeeded, "total", total)
	return succeeded
}

func (d *Downloader) downloadOne(ctx context.Context, img domain.PendingImage) error {
	resp, err := d.getter.Fetch(ctx, img.URL, nil)
	if err != nil {
		return err
	}
	if len(resp.Body) == 0 {
		return errors.New("empty image body")
	}
	return d.store.Write(ctx, img.LocalName, resp.Body)
}
