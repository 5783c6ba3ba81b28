// Package helpers provides a fake field guide site for integration tests.
package helpers

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Stream is a stream as the site publishes it
type Stream struct {
	XMLName     xml.Name `xml:"stream"`
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name"`
	Town        string   `xml:"town"`
	Watershed   string   `xml:"watershed"`
	Description string   `xml:"description"`
	Updated     int64    `xml:"updated"`
}

// Invertebrate is an invertebrate as the site publishes it
type Invertebrate struct {
	XMLName     xml.Name `xml:"invertebrate"`
	ID          string   `xml:"id,attr"`
	CommonName  string   `xml:"commonName"`
	Family      string   `xml:"family"`
	Order       string   `xml:"order"`
	Sensitivity int      `xml:"sensitivity"`
	Images      []string `xml:"images>image"`
}

// Site serves streams, invertebrates, images and an about page in the
// default remote layout
type Site struct {
	mu            sync.Mutex
	streams       map[string]Stream
	invertebrates map[string]Invertebrate
	images        map[string][]byte
	about         string
	offline       atomic.Bool

	requests atomic.Int64
	server   *httptest.Server
}

// NewSite starts the fake site. Call Close when done.
func NewSite() *Site {
	s := &Site{
		streams:       make(map[string]Stream),
		invertebrates: make(map[string]Invertebrate),
		images:        make(map[string][]byte),
		about:         `<html><body><main><h1>About</h1><p>Volunteer stream monitoring.</p></main></body></html>`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/streams.json", s.streamList)
	mux.HandleFunc("GET /api/streams/{file}", s.streamDetail)
	mux.HandleFunc("GET /api/invertebrates.json", s.invertebrateList)
	mux.HandleFunc("GET /api/invertebrates/{file}", s.invertebrateDetail)
	mux.HandleFunc("GET /images/{$}", s.imageIndex)
	mux.HandleFunc("GET /images/{name}", s.image)
	mux.HandleFunc("GET /about.html", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, s.about)
	})

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.offline.Load() {
			// Drop the connection so clients see a transport error
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			http.Error(w, "offline", http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	return s
}

// URL returns the base URL of the site
func (s *Site) URL() string { return s.server.URL }

// Close shuts the site down
func (s *Site) Close() { s.server.Close() }

// Requests returns how many requests the site has seen
func (s *Site) Requests() int64 { return s.requests.Load() }

// SetOffline makes every request fail at the transport level
func (s *Site) SetOffline(offline bool) { s.offline.Store(offline) }

// PutStream adds or replaces a stream
func (s *Site) PutStream(st Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[st.ID] = st
}

// RemoveStream drops a stream from the site
func (s *Site) RemoveStream(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, id)
}

// PutInvertebrate adds or replaces an invertebrate
func (s *Site) PutInvertebrate(inv Invertebrate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invertebrates[inv.ID] = inv
}

// PutImage publishes an image under name
func (s *Site) PutImage(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = data
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Site) streamList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]any, 0, len(s.streams))
	for _, id := range keys(s.streams) {
		items = append(items, map[string]any{"id": id, "name": s.streams[id].Name, "updated": s.streams[id].Updated})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"streams": items})
}

func (s *Site) invertebrateList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]any, 0, len(s.invertebrates))
	for _, id := range keys(s.invertebrates) {
		items = append(items, map[string]any{"id": id, "name": s.invertebrates[id].CommonName})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"invertebrates": items})
}

func (s *Site) streamDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st, ok := s.streams[strings.TrimSuffix(r.PathValue("file"), ".xml")]
	s.mu.Unlock()
	writeXML(w, r, st, ok)
}

func (s *Site) invertebrateDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	inv, ok := s.invertebrates[strings.TrimSuffix(r.PathValue("file"), ".xml")]
	s.mu.Unlock()
	writeXML(w, r, inv, ok)
}

func writeXML(w http.ResponseWriter, r *http.Request, v any, ok bool) {
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(v)
}

func (s *Site) imageIndex(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, "<html><body><h1>Index of /images</h1>\n<a href=\"../\">Parent Directory</a>\n")
	for _, name := range keys(s.images) {
		fmt.Fprintf(w, "<a href=\"%s\">%s</a>\n", html.EscapeString(name), html.EscapeString(name))
	}
	fmt.Fprint(w, "</body></html>")
}

func (s *Site) image(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.images[r.PathValue("name")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}
