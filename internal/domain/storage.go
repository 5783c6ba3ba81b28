package domain

import "time"

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=storage.go Persister

// Persister saves the local collections between runs.
// Implementations replace the stored snapshot wholesale on each save.
type Persister interface {
	// === Streams ===
	LoadStreams() ([]Stream, error)
	SaveStreams(streams []Stream) error

	// === Invertebrates ===
	LoadInvertebrates() ([]Invertebrate, error)
	SaveInvertebrates(invertebrates []Invertebrate) error

	// === About page ===
	LoadAbout() (string, bool)
	SaveAbout(text string) error

	// === Bookkeeping ===
	LastUpdate() (time.Time, bool)
	SetLastUpdate(t time.Time) error

	// === Lifecycle ===
	Close() error
}
