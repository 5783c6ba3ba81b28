package domain

import (
	"fmt"
	"path"
	"strings"
)

// Record is a domain entity keyed by a stable identifier that knows how to
// absorb a freshly parsed remote copy of itself.
type Record[T any] interface {
	GetID() string
	// Merge returns the receiver updated with remote's fields. Local-only
	// state not represented remotely is carried over from the receiver.
	Merge(remote T) T
}

// Stream is a monitored stream site (the record collection).
type Stream struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Town        string  `json:"town"`
	Watershed   string  `json:"watershed"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
	UpdatedAt   int64   `json:"updated_at"` // Unix timestamp reported by the server

	// Local-only
	Favorite bool `json:"favorite"`
}

func (s Stream) GetID() string { return s.ID }

// Merge keeps the user's favorite flag; every remote field is replaced.
func (s Stream) Merge(remote Stream) Stream {
	remote.Favorite = s.Favorite
	return remote
}

// Location returns a "Town (Watershed)" label, omitting empty parts.
func (s Stream) Location() string {
	switch {
	case s.Town != "" && s.Watershed != "":
		return fmt.Sprintf("%s (%s)", s.Town, s.Watershed)
	case s.Town != "":
		return s.Town
	default:
		return s.Watershed
	}
}

// Invertebrate is a benthic macroinvertebrate taxon (the media collection).
type Invertebrate struct {
	ID          string   `json:"id"`
	CommonName  string   `json:"common_name"`
	Family      string   `json:"family"`
	Order       string   `json:"order"`
	Sensitivity int      `json:"sensitivity"` // Pollution tolerance, 0 (intolerant) to 10
	Description string   `json:"description"`
	Images      []string `json:"images"` // Remote image filenames

	// Local-only, derived from the image store
	HasLocalImage bool `json:"has_local_image"`
}

func (i Invertebrate) GetID() string { return i.ID }

// Merge replaces every remote field. HasLocalImage is carried over so the
// value is never lost; callers recompute it from the image store.
func (i Invertebrate) Merge(remote Invertebrate) Invertebrate {
	remote.HasLocalImage = i.HasLocalImage
	return remote
}

// DisplayName prefers the common name and falls back to the identifier.
func (i Invertebrate) DisplayName() string {
	if i.CommonName != "" {
		return i.CommonName
	}
	return i.ID
}

// SensitivityClass buckets the tolerance value the way field sheets do.
func (i Invertebrate) SensitivityClass() string {
	switch {
	case i.Sensitivity <= 3:
		return "sensitive"
	case i.Sensitivity <= 6:
		return "somewhat sensitive"
	default:
		return "tolerant"
	}
}

// PendingImage is a remote image that has no local copy yet.
type PendingImage struct {
	ID        string // Remote image filename
	LocalName string // Collision-free name in the image store
	URL       string
}

// ImageExt returns the lowercase extension of an image filename, defaulting
// to ".jpg" when the name carries none.
func ImageExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return ".jpg"
	}
	return ext
}
