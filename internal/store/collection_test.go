package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benthic/benthic/internal/domain"
)

func TestCollection_Basics(t *testing.T) {
	t.Parallel()

	c := NewCollection(
		domain.Stream{ID: "b", Name: "Beaver Brook"},
		domain.Stream{ID: "a", Name: "Ammonoosuc"},
	)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Ammonoosuc", got.Name)

	c.Upsert(domain.Stream{ID: "a", Name: "Ammonoosuc River"})
	got, _ = c.Get("a")
	assert.Equal(t, "Ammonoosuc River", got.Name)

	assert.True(t, c.Delete("b"))
	assert.False(t, c.Delete("b"))
	_, ok = c.Get("b")
	assert.False(t, ok)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "a", snap[0].ID)

	c.Replace([]domain.Stream{{ID: "z"}, {ID: "y"}})
	assert.Equal(t, []string{"y", "z"}, c.Keys())
}

func TestCollection_UpdateIsAtomic(t *testing.T) {
	t.Parallel()

	// Every Update writes the same generation to all records, so a reader
	// must never see two different generations in one snapshot.
	const n = 20
	c := NewCollection[domain.Stream]()
	c.Update(func(tx *Tx[domain.Stream]) {
		for i := 0; i < n; i++ {
			tx.Put(domain.Stream{ID: fmt.Sprintf("s%02d", i), Name: "gen-0"})
		}
	})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 1; gen <= 200; gen++ {
			name := fmt.Sprintf("gen-%d", gen)
			c.Update(func(tx *Tx[domain.Stream]) {
				tx.Range(func(id string, v domain.Stream) bool {
					v.Name = name
					tx.Put(v)
					return true
				})
			})
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := c.Snapshot()
				if len(snap) != n {
					t.Errorf("snapshot has %d records, want %d", len(snap), n)
					return
				}
				for _, s := range snap {
					if s.Name != snap[0].Name {
						t.Errorf("torn snapshot: %q vs %q", s.Name, snap[0].Name)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
	got, _ := c.Get("s00")
	assert.Equal(t, "gen-200", got.Name)
}

func TestTx_DeleteDuringRange(t *testing.T) {
	t.Parallel()

	c := NewCollection(domain.Stream{ID: "a"}, domain.Stream{ID: "b"}, domain.Stream{ID: "c"})
	c.Update(func(tx *Tx[domain.Stream]) {
		tx.Range(func(id string, _ domain.Stream) bool {
			if id != "b" {
				tx.Delete(id)
			}
			return true
		})
	})
	assert.Equal(t, []string{"b"}, c.Keys())
}
