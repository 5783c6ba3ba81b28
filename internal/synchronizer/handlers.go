package synchronizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/benthic/benthic/internal/config"
	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/fetch"
	"github.com/benthic/benthic/internal/merge"
	"github.com/benthic/benthic/internal/parser"
	"github.com/benthic/benthic/internal/store"
)

// ResourceKind identifies one kind of remote document.
type ResourceKind int

const (
	StreamList ResourceKind = iota
	StreamDetail
	InvertebrateList
	InvertebrateDetail
	ImageList
	About
)

func (k ResourceKind) String() string {
	switch k {
	case StreamList:
		return "stream list"
	case StreamDetail:
		return "stream detail"
	case InvertebrateList:
		return "invertebrate list"
	case InvertebrateDetail:
		return "invertebrate detail"
	case ImageList:
		return "image list"
	case About:
		return "about page"
	default:
		return "unknown resource"
	}
}

// Path returns the configured path template of k.
func (k ResourceKind) Path(cfg config.ServerConfig) string {
	switch k {
	case StreamList:
		return cfg.StreamListPath
	case StreamDetail:
		return cfg.StreamDetailPath
	case InvertebrateList:
		return cfg.InvertebrateListPath
	case InvertebrateDetail:
		return cfg.InvertebrateDetailPath
	case ImageList:
		return cfg.ImageListPath
	case About:
		return cfg.AboutPath
	default:
		return ""
	}
}

// fetchResource resolves and fetches one document. A cancelled fetch is
// reported as domain.ErrHalted.
func (s *Synchronizer) fetchResource(ctx context.Context, f fetch.Getter, kind ResourceKind, id string) (*fetch.Response, error) {
	u, err := s.deps.Server.Resolve(kind.Path(s.deps.Server), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	resp, err := f.Fetch(ctx, u, nil)
	if errors.Is(err, fetch.ErrCancelled) {
		return nil, domain.ErrHalted
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return resp, nil
}

// recordHandler binds the list and detail handlers of one collection.
type recordHandler[T domain.Record[T]] struct {
	collection  string
	list        ResourceKind
	detail      ResourceKind
	parseList   func([]byte) ([]parser.ListEntry, error)
	parseDetail func([]byte) (T, error)
	refresh     merge.LocalStateFunc[T]
	target      *store.Collection[T]

	merged  *int
	removed *int
}

func (s *Synchronizer) streamHandler(r *run) *recordHandler[domain.Stream] {
	return &recordHandler[domain.Stream]{
		collection:  "streams",
		list:        StreamList,
		detail:      StreamDetail,
		parseList:   parser.ParseStreamList,
		parseDetail: parser.ParseStreamDetail,
		target:      s.deps.Streams,
		merged:      &r.summary.StreamsMerged,
		removed:     &r.summary.StreamsRemoved,
	}
}

func (s *Synchronizer) invertebrateHandler(r *run) *recordHandler[domain.Invertebrate] {
	return &recordHandler[domain.Invertebrate]{
		collection:  "invertebrates",
		list:        InvertebrateList,
		detail:      InvertebrateDetail,
		parseList:   parser.ParseInvertebrateList,
		parseDetail: parser.ParseInvertebrateDetail,
		refresh:     merge.ImageState(r.hasImage),
		target:      s.deps.Invertebrates,
		merged:      &r.summary.InvertebratesMerged,
		removed:     &r.summary.InvertebratesRemoved,
	}
}

// handleList fetches and parses a top-level list. Any failure is escalated.
func handleList[T domain.Record[T]](s *Synchronizer, r *run, f fetch.Getter, h *recordHandler[T]) ([]parser.ListEntry, error) {
	resp, err := s.fetchResource(r.ctx, f, h.list, "")
	if err != nil {
		return nil, err
	}
	entries, err := h.parseList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.list, err)
	}
	r.logger.Debug("list fetched", "resource", h.list.String(), "entries", len(entries))
	return entries, nil
}

// handleDetails fetches every listed record in order and merges each as it
// arrives. A failing record is logged and skipped. Removals are reconciled
// only after the whole list was walked.
func handleDetails[T domain.Record[T]](s *Synchronizer, r *run, f fetch.Getter, h *recordHandler[T], entries []parser.ListEntry) error {
	remote := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		remote[e.ID] = struct{}{}
	}

	merged := 0
	defer func() {
		*h.merged += merged
		s.metrics.RecordMerged(r.ctx, h.collection, merged)
	}()

	for i, e := range entries {
		if r.halted() {
			return domain.ErrHalted
		}

		changed, err := handleDetail(s, r, f, h, e.ID)
		if errors.Is(err, domain.ErrHalted) {
			return err
		}
		if err != nil {
			r.logger.Warn("skipping record", "resource", h.detail.String(), "id", e.ID, "error", err)
		}
		if changed {
			merged++
		}
		r.emitProgress(domain.Progress{Stage: r.stage, Done: i + 1, Total: len(entries), Item: e.ID, Err: err})
	}

	if r.halted() {
		return domain.ErrHalted
	}

	removed := merge.ReconcileRemovals(h.target, remote)
	if len(removed) > 0 {
		r.dirty = true
		*h.removed += len(removed)
		s.metrics.RecordRemoved(r.ctx, h.collection, len(removed))
		r.logger.Info("removed records", "collection", h.collection, "ids", removed)
	}
	return nil
}

func handleDetail[T domain.Record[T]](s *Synchronizer, r *run, f fetch.Getter, h *recordHandler[T], id string) (bool, error) {
	resp, err := s.fetchResource(r.ctx, f, h.detail, id)
	if err != nil {
		return false, err
	}
	rec, err := h.parseDetail(resp.Body)
	if err != nil {
		return false, err
	}
	outcome, err := merge.MergeRecord(h.target, id, rec, h.refresh)
	if err != nil {
		return false, err
	}
	if outcome == merge.Unchanged {
		return false, nil
	}
	r.dirty = true
	return true, nil
}
