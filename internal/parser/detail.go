package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/benthic/benthic/internal/domain"
)

// streamDoc mirrors <stream id="..."> detail documents.
type streamDoc struct {
	XMLName     xml.Name `xml:"stream"`
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name"`
	Town        string   `xml:"town"`
	Watershed   string   `xml:"watershed"`
	Latitude    float64  `xml:"latitude"`
	Longitude   float64  `xml:"longitude"`
	Description string   `xml:"description"`
	Updated     int64    `xml:"updated"`
}

// invertebrateDoc mirrors <invertebrate id="..."> detail documents.
type invertebrateDoc struct {
	XMLName     xml.Name `xml:"invertebrate"`
	ID          string   `xml:"id,attr"`
	CommonName  string   `xml:"commonName"`
	Family      string   `xml:"family"`
	Order       string   `xml:"order"`
	Sensitivity int      `xml:"sensitivity"`
	Description string   `xml:"description"`
	Images      []string `xml:"images>image"`
}

// ParseStreamDetail decodes one stream detail document.
func ParseStreamDetail(body []byte) (domain.Stream, error) {
	var doc streamDoc
	if err := decodeXML(body, &doc); err != nil {
		return domain.Stream{}, parseErr("stream detail", err)
	}
	id := strings.TrimSpace(doc.ID)
	if id == "" {
		return domain.Stream{}, parseErrf("stream detail", "missing id attribute")
	}
	return domain.Stream{
		ID:          id,
		Name:        strings.TrimSpace(doc.Name),
		Town:        strings.TrimSpace(doc.Town),
		Watershed:   strings.TrimSpace(doc.Watershed),
		Latitude:    doc.Latitude,
		Longitude:   doc.Longitude,
		Description: strings.TrimSpace(doc.Description),
		UpdatedAt:   doc.Updated,
	}, nil
}

// ParseInvertebrateDetail decodes one invertebrate detail document.
// Blank and repeated image names are dropped.
func ParseInvertebrateDetail(body []byte) (domain.Invertebrate, error) {
	var doc invertebrateDoc
	if err := decodeXML(body, &doc); err != nil {
		return domain.Invertebrate{}, parseErr("invertebrate detail", err)
	}
	id := strings.TrimSpace(doc.ID)
	if id == "" {
		return domain.Invertebrate{}, parseErrf("invertebrate detail", "missing id attribute")
	}
	if doc.Sensitivity < 0 || doc.Sensitivity > 10 {
		return domain.Invertebrate{}, parseErrf("invertebrate detail", "sensitivity %d out of range", doc.Sensitivity)
	}

	var images []string
	seen := make(map[string]struct{}, len(doc.Images))
	for _, img := range doc.Images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if _, dup := seen[img]; dup {
			continue
		}
		seen[img] = struct{}{}
		images = append(images, img)
	}

	return domain.Invertebrate{
		ID:          id,
		CommonName:  strings.TrimSpace(doc.CommonName),
		Family:      strings.TrimSpace(doc.Family),
		Order:       strings.TrimSpace(doc.Order),
		Sensitivity: doc.Sensitivity,
		Description: strings.TrimSpace(doc.Description),
		Images:      images,
	}, nil
}

func decodeXML(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty document")
	}
	return xml.NewDecoder(bytes.NewReader(body)).Decode(v)
}
