package synchronizer

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/fetch"
	"github.com/benthic/benthic/internal/images"
	"github.com/benthic/benthic/internal/merge"
	"github.com/benthic/benthic/internal/parser"
)

type stageFunc func(s *Synchronizer, r *run, f fetch.Getter) error

// stageTable is the fixed order of a run. Finalizing is not listed; it
// runs after the table whatever the outcome.
var stageTable = []struct {
	stage   domain.Stage
	message string
	run     stageFunc
}{
	{domain.StageRecordSync, "Syncing streams and invertebrates", (*Synchronizer).syncRecords},
	{domain.StageMediaSync, "Syncing invertebrate images", (*Synchronizer).syncMedia},
	{domain.StageInfoSync, "Syncing about page", (*Synchronizer).syncInfo},
}

func (s *Synchronizer) syncRecords(r *run, f fetch.Getter) error {
	streams := s.streamHandler(r)
	invertebrates := s.invertebrateHandler(r)

	// Both lists come in before anything is merged
	streamEntries, err := handleList(s, r, f, streams)
	if err != nil {
		return err
	}
	invertebrateEntries, err := handleList(s, r, f, invertebrates)
	if err != nil {
		return err
	}

	if err := s.loadInventory(r); err != nil {
		return err
	}

	if err := handleDetails(s, r, f, streams, streamEntries); err != nil {
		return err
	}
	return handleDetails(s, r, f, invertebrates, invertebrateEntries)
}

// loadInventory snapshots the local image names so that merges can
// recompute HasLocalImage without touching storage under the lock.
func (s *Synchronizer) loadInventory(r *run) error {
	inv, err := s.deps.Images.Inventory(r.ctx)
	if err != nil {
		if r.halted() {
			return domain.ErrHalted
		}
		return fmt.Errorf("failed to list local images: %w", err)
	}
	r.inventory = inv
	return nil
}

func (s *Synchronizer) syncMedia(r *run, f fetch.Getter) error {
	resp, err := s.fetchResource(r.ctx, f, ImageList, "")
	if err != nil {
		return err
	}
	base, err := url.Parse(resp.URL)
	if err != nil {
		return fmt.Errorf("%s: %w", ImageList, err)
	}
	available, err := parser.ParseImageList(resp.Body, base)
	if err != nil {
		return fmt.Errorf("%s: %w", ImageList, err)
	}

	if r.inventory == nil {
		if err := s.loadInventory(r); err != nil {
			return err
		}
	}

	pending := merge.PendingImages(s.deps.Invertebrates, available, r.hasImage)
	if len(pending) > 0 {
		r.status(fmt.Sprintf("Downloading %d images", len(pending)))
	}

	dl := images.NewDownloader(f, s.deps.Images, images.Options{
		BatchSize: s.batchSize,
		Logger:    r.logger,
		OnProgress: func(done, total int, img domain.PendingImage, err error) {
			s.metrics.RecordImage(r.ctx, err == nil)
			if err == nil {
				r.inventory[img.LocalName] = struct{}{}
			} else {
				r.summary.ImagesFailed++
			}
			r.emitProgress(domain.Progress{Stage: r.stage, Done: done, Total: total, Item: img.ID, Err: err})
		},
	})
	r.summary.ImagesDownloaded = dl.DownloadMissing(r.ctx, pending)

	if changed := merge.RefreshLocalState(s.deps.Invertebrates, merge.ImageState(r.hasImage)); changed > 0 {
		r.dirty = true
	}

	if r.halted() {
		return domain.ErrHalted
	}
	r.emit(domain.ImageSyncComplete{Downloaded: r.summary.ImagesDownloaded, Pending: len(pending)})
	return nil
}

// syncInfo never fails the run; the about page is informational.
func (s *Synchronizer) syncInfo(r *run, f fetch.Getter) error {
	if s.deps.Server.AboutPath == "" {
		r.logger.Debug("no about page configured")
		return nil
	}

	resp, err := s.fetchResource(r.ctx, f, About, "")
	if errors.Is(err, domain.ErrHalted) {
		return err
	}
	if err != nil {
		r.logger.Warn("about page unavailable", "error", err)
		return nil
	}

	text, err := parser.ParseAbout(resp.Body)
	if err != nil {
		r.logger.Warn("failed to parse about page", "error", err)
		return nil
	}
	if text == "" {
		r.logger.Debug("about page is empty")
		return nil
	}

	r.about = text
	r.emit(domain.AboutParsed{Text: text})
	return nil
}
