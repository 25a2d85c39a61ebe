package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"testing"
)

// FakeVolume is one search hit served by FakeAPIs.
type FakeVolume struct {
	ID         string
	Title      string
	Authors    []string
	Categories []string
	ISBN13     string
}

// FakeAPIs serves a tiny Google Books volumes endpoint and the OpenLibrary
// author and edition endpoints from one test server.
type FakeAPIs struct {
	URL string

	mu       sync.Mutex
	volumes  []FakeVolume
	requests map[string]int
	queries  []string
}

// NewFakeAPIs starts the server with the given volumes, returned for every query.
func NewFakeAPIs(t *testing.T, volumes ...FakeVolume) *FakeAPIs {
	t.Helper()

	f := &FakeAPIs{volumes: volumes, requests: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", f.handleVolumes)
	mux.HandleFunc("/search/authors.json", f.handleAuthorSearch)
	mux.HandleFunc("/api/books", f.handleBooks)

	server := NewIPv4Server(t, mux)
	f.URL = server.URL
	return f
}

// Requests returns how many requests hit path.
func (f *FakeAPIs) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

// Queries returns the q parameter of every volumes request, in order.
func (f *FakeAPIs) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *FakeAPIs) count(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[r.URL.Path]++
}

func (f *FakeAPIs) handleVolumes(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query().Get("q"))
	f.mu.Unlock()

	start, _ := strconv.Atoi(r.URL.Query().Get("startIndex"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))

	items := []map[string]any{}
	for i := start; i < len(f.volumes) && len(items) < limit; i++ {
		v := f.volumes[i]
		info := map[string]any{
			"title":      v.Title,
			"authors":    v.Authors,
			"categories": v.Categories,
			"language":   "en",
		}
		if v.ISBN13 != "" {
			info["industryIdentifiers"] = []map[string]string{{"type": "ISBN_13", "identifier": v.ISBN13}}
		}
		items = append(items, map[string]any{"id": v.ID, "volumeInfo": info})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"totalItems": len(f.volumes), "items": items})
}

func (f *FakeAPIs) handleAuthorSearch(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
}

func (f *FakeAPIs) handleBooks(w http.ResponseWriter, r *http.Request) {
	f.count(r)
	_, _ = w.Write([]byte(`{}`))
}
