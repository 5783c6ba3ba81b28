// Package merge applies parsed remote records to the shared local
// collections. Every mutation happens inside a single Collection.Update so
// a partially applied merge is never observable.
package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/store"
)

// ErrIDMismatch is returned when a parsed record does not carry the
// identifier it was fetched for.
var ErrIDMismatch = errors.New("parsed record identifier does not match")

// Outcome describes what MergeRecord did.
type Outcome int

const (
	Unchanged Outcome = iota
	Inserted
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// LocalStateFunc recomputes derived local-only state of a record.
type LocalStateFunc[T any] func(T) T

// MergeRecord inserts parsed under id if absent, otherwise merges it into the
// existing record so local-only state survives. refresh, if non-nil, then
// recomputes derived local state. It never deletes and is idempotent.
func MergeRecord[T domain.Record[T]](c *store.Collection[T], id string, parsed T, refresh LocalStateFunc[T]) (Outcome, error) {
	if parsed.GetID() != id {
		return Unchanged, fmt.Errorf("%w: fetched %q, got %q", ErrIDMismatch, id, parsed.GetID())
	}

	outcome := Unchanged
	c.Update(func(tx *store.Tx[T]) {
		existing, ok := tx.Get(id)
		next := parsed
		if ok {
			next = existing.Merge(parsed)
		}
		if refresh != nil {
			next = refresh(next)
		}

		switch {
		case !ok:
			outcome = Inserted
		case !reflect.DeepEqual(existing, next):
			outcome = Updated
		default:
			return
		}
		tx.Put(next)
	})
	return outcome, nil
}

// ReconcileRemovals deletes every record whose identifier is not in remote
// and returns the removed identifiers in sorted order. It is the only path
// that removes records and must only run after a complete list pass.
func ReconcileRemovals[T domain.Record[T]](c *store.Collection[T], remote map[string]struct{}) []string {
	var removed []string
	c.Update(func(tx *store.Tx[T]) {
		tx.Range(func(id string, _ T) bool {
			if _, ok := remote[id]; !ok {
				removed = append(removed, id)
			}
			return true
		})
		for _, id := range removed {
			tx.Delete(id)
		}
	})
	sort.Strings(removed)
	return removed
}

// RefreshLocalState applies fn to every record and returns how many changed.
func RefreshLocalState[T domain.Record[T]](c *store.Collection[T], fn LocalStateFunc[T]) int {
	changed := 0
	c.Update(func(tx *store.Tx[T]) {
		var updates []T
		tx.Range(func(_ string, v T) bool {
			if next := fn(v); !reflect.DeepEqual(v, next) {
				updates = append(updates, next)
			}
			return true
		})
		for _, v := range updates {
			tx.Put(v)
		}
		changed = len(updates)
	})
	return changed
}

// LocalName maps a remote image identifier to a collision-free local
// filename: a stable hash of the identifier plus its extension.
func LocalName(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8]) + domain.ImageExt(id)
}

// ImageState recomputes HasLocalImage from the image store.
func ImageState(exists func(localName string) bool) LocalStateFunc[domain.Invertebrate] {
	return func(inv domain.Invertebrate) domain.Invertebrate {
		inv.HasLocalImage = false
		for _, img := range inv.Images {
			if exists(LocalName(img)) {
				inv.HasLocalImage = true
				break
			}
		}
		return inv
	}
}

// PendingImages lists the images referenced by c that the remote image
// index advertises but the local store lacks. Images shared by several
// records appear once. The result is sorted by identifier.
func PendingImages(c *store.Collection[domain.Invertebrate], available map[string]string, exists func(localName string) bool) []domain.PendingImage {
	seen := make(map[string]struct{})
	var pending []domain.PendingImage

	for _, inv := range c.Snapshot() {
		for _, img := range inv.Images {
			if _, dup := seen[img]; dup {
				continue
			}
			seen[img] = struct{}{}

			src, ok := available[img]
			if !ok {
				continue
			}
			local := LocalName(img)
			if exists(local) {
				continue
			}
			pending = append(pending, domain.PendingImage{ID: img, LocalName: local, URL: src})
		}
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending
}
