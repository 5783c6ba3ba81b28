// Package search finds streams and invertebrates in the local collections.
package search

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/store"
)

// Kind names the collection an item comes from
type Kind string

const (
	KindStream       Kind = "stream"
	KindInvertebrate Kind = "invertebrate"
)

// Item is one searchable record
type Item struct {
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
	Title  string `json:"title"`            // Searchable display title
	Detail string `json:"detail,omitempty"` // Secondary line: location or taxonomy
}

// Result is a filter match with metadata for highlighting
type Result struct {
	Item
	MatchedIndexes []int // Character positions that matched
	Score          int   // Higher is better
}

// Index implements sahilm/fuzzy.Source over pre-lowered titles
type Index struct {
	items       []Item
	lowerTitles []string
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.items) }

// Item returns the item at index i
func (idx *Index) Item(i int) Item { return idx.items[i] }

func (idx *Index) add(item Item) {
	idx.items = append(idx.items, item)
	idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(item.Title))
}

// Service searches the shared collections. It reads snapshots, so it is
// safe to use while a sync run is merging.
type Service struct {
	streams       *store.Collection[domain.Stream]
	invertebrates *store.Collection[domain.Invertebrate]
	logger        *slog.Logger
}

// NewService creates a search service
func NewService(streams *store.Collection[domain.Stream], invertebrates *store.Collection[domain.Invertebrate], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		streams:       streams,
		invertebrates: invertebrates,
		logger:        logger,
	}
}

// Index builds a search index over the given kinds (all kinds when empty)
func (s *Service) Index(kinds ...Kind) *Index {
	allowed := func(k Kind) bool {
		if len(kinds) == 0 {
			return true
		}
		for _, want := range kinds {
			if want == k {
				return true
			}
		}
		return false
	}

	idx := &Index{}
	if s.streams != nil && allowed(KindStream) {
		for _, st := range s.streams.Snapshot() {
			idx.add(StreamItem(st))
		}
	}
	if s.invertebrates != nil && allowed(KindInvertebrate) {
		for _, inv := range s.invertebrates.Snapshot() {
			idx.add(InvertebrateItem(inv))
		}
	}
	return idx
}

// StreamItem converts a stream to a search item
func StreamItem(st domain.Stream) Item {
	title := st.Name
	if title == "" {
		title = st.ID
	}
	return Item{Kind: KindStream, ID: st.ID, Title: title, Detail: st.Location()}
}

// InvertebrateItem converts an invertebrate to a search item
func InvertebrateItem(inv domain.Invertebrate) Item {
	detail := inv.Order
	if inv.Family != "" {
		if detail != "" {
			detail += " / "
		}
		detail += inv.Family
	}
	return Item{Kind: KindInvertebrate, ID: inv.ID, Title: inv.DisplayName(), Detail: detail}
}

// Filter returns fuzzy matches of query, best first. An empty query
// matches nothing.
func (s *Service) Filter(query string, kinds ...Kind) []Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	idx := s.Index(kinds...)
	if idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Item:           idx.items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	s.logger.Debug("filter", "query", query, "candidates", idx.Len(), "results", len(results))
	return results
}

// Resolve finds the single record of kind that query names: an exact ID
// first, then the closest title by edit distance.
func (s *Service) Resolve(kind Kind, query string) (Item, error) {
	idx := s.Index(kind)
	for _, item := range idx.items {
		if item.ID == query {
			return item, nil
		}
	}

	ranks := fuzzysearch.RankFindFold(query, idx.lowerTitles)
	if len(ranks) == 0 {
		return Item{}, fmt.Errorf("%s %q: %w", kind, query, domain.ErrNotFound)
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	best := idx.items[ranks[0].OriginalIndex]
	s.logger.Debug("resolved", "kind", kind, "query", query, "id", best.ID, "distance", ranks[0].Distance)
	return best, nil
}
