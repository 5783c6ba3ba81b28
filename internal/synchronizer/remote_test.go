package synchronizer

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/benthic/benthic/internal/domain"
)

// fakeRemote serves the remote site layout of config.DefaultConfig.
type fakeRemote struct {
	mu            sync.Mutex
	streams       map[string]domain.Stream
	invertebrates map[string]domain.Invertebrate
	images        map[string][]byte
	about         string

	// intercept, if set, sees every request first; returning true means it
	// has written the response.
	intercept func(w http.ResponseWriter, r *http.Request) bool

	srv *httptest.Server
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()

	rm := &fakeRemote{
		streams:       make(map[string]domain.Stream),
		invertebrates: make(map[string]domain.Invertebrate),
		images:        make(map[string][]byte),
		about:         "<html><body><div id=\"about\"><p>Volunteer stream monitoring.</p></div></body></html>",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/streams.json", rm.serveStreamList)
	mux.HandleFunc("GET /api/streams/{file}", rm.serveStream)
	mux.HandleFunc("GET /api/invertebrates.json", rm.serveInvertebrateList)
	mux.HandleFunc("GET /api/invertebrates/{file}", rm.serveInvertebrate)
	mux.HandleFunc("GET /images/{$}", rm.serveImageIndex)
	mux.HandleFunc("GET /images/{name}", rm.serveImage)
	mux.HandleFunc("GET /about.html", rm.serveAbout)

	rm.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rm.mu.Lock()
		intercept := rm.intercept
		rm.mu.Unlock()
		if intercept != nil && intercept(w, r) {
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(rm.srv.Close)
	return rm
}

func (rm *fakeRemote) URL() string { return rm.srv.URL }

func (rm *fakeRemote) setIntercept(fn func(w http.ResponseWriter, r *http.Request) bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.intercept = fn
}

func (rm *fakeRemote) addStream(s domain.Stream) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.streams[s.ID] = s
}

func (rm *fakeRemote) addInvertebrate(inv domain.Invertebrate) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.invertebrates[inv.ID] = inv
}

func (rm *fakeRemote) addImage(name string, data []byte) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.images[name] = data
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (rm *fakeRemote) serveStreamList(w http.ResponseWriter, _ *http.Request) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	items := make([]map[string]any, 0, len(rm.streams))
	for _, id := range sortedKeys(rm.streams) {
		s := rm.streams[id]
		items = append(items, map[string]any{"id": s.ID, "name": s.Name, "updated": s.UpdatedAt})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"streams": items})
}

func (rm *fakeRemote) serveInvertebrateList(w http.ResponseWriter, _ *http.Request) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	items := make([]map[string]any, 0, len(rm.invertebrates))
	for _, id := range sortedKeys(rm.invertebrates) {
		inv := rm.invertebrates[id]
		items = append(items, map[string]any{"id": inv.ID, "name": inv.CommonName})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"invertebrates": items})
}

func (rm *fakeRemote) serveStream(w http.ResponseWriter, r *http.Request) {
	rm.mu.Lock()
	s, ok := rm.streams[strings.TrimSuffix(r.PathValue("file"), ".xml")]
	rm.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprintf(w, `<?xml version="1.0"?>
<stream id="%s">
  <name>%s</name>
  <town>%s</town>
  <watershed>%s</watershed>
  <latitude>%g</latitude>
  <longitude>%g</longitude>
  <description>%s</description>
  <updated>%d</updated>
</stream>`,
		html.EscapeString(s.ID), html.EscapeString(s.Name), html.EscapeString(s.Town),
		html.EscapeString(s.Watershed), s.Latitude, s.Longitude,
		html.EscapeString(s.Description), s.UpdatedAt)
}

func (rm *fakeRemote) serveInvertebrate(w http.ResponseWriter, r *http.Request) {
	rm.mu.Lock()
	inv, ok := rm.invertebrates[strings.TrimSuffix(r.PathValue("file"), ".xml")]
	rm.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	var imgs strings.Builder
	for _, name := range inv.Images {
		fmt.Fprintf(&imgs, "<image>%s</image>", html.EscapeString(name))
	}

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprintf(w, `<invertebrate id="%s">
  <commonName>%s</commonName>
  <family>%s</family>
  <order>%s</order>
  <sensitivity>%d</sensitivity>
  <description>%s</description>
  <images>%s</images>
</invertebrate>`,
		html.EscapeString(inv.ID), html.EscapeString(inv.CommonName), html.EscapeString(inv.Family),
		html.EscapeString(inv.Order), inv.Sensitivity, html.EscapeString(inv.Description), imgs.String())
}

func (rm *fakeRemote) serveImageIndex(w http.ResponseWriter, _ *http.Request) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, "<html><body><h1>Index of /images</h1>\n<a href=\"../\">Parent Directory</a>\n")
	for _, name := range sortedKeys(rm.images) {
		fmt.Fprintf(w, "<a href=\"%s\">%s</a>\n", html.EscapeString(name), html.EscapeString(name))
	}
	fmt.Fprint(w, "</body></html>")
}

func (rm *fakeRemote) serveImage(w http.ResponseWriter, r *http.Request) {
	rm.mu.Lock()
	data, ok := rm.images[r.PathValue("name")]
	rm.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (rm *fakeRemote) serveAbout(w http.ResponseWriter, _ *http.Request) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, rm.about)
}
