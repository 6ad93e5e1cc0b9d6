package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// StitchServer serves screen metadata and artifact bodies for tests.
// Screens registered with AddScreen point their download URLs back at the
// same server under /files/.
type StitchServer struct {
	*httptest.Server

	APIKey    string
	ProjectID string

	mu       sync.Mutex
	screens  map[string]map[string]any
	files    map[string]string
	requests []string
}

// NewStitchServer starts a fake Stitch API and registers cleanup.
func NewStitchServer(t testing.TB, apiKey, projectID string) *StitchServer {
	t.Helper()

	s := &StitchServer{
		APIKey:    apiKey,
		ProjectID: projectID,
		screens:   map[string]map[string]any{},
		files:     map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/projects/", s.serveScreen)
	mux.HandleFunc("/files/", s.serveFile)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root to configure as stitch.base_url.
func (s *StitchServer) BaseURL() string {
	return s.URL + "/v1"
}

// AddScreen registers metadata for id. Empty bodies leave the matching
// artifact reference out of the metadata.
func (s *StitchServer) AddScreen(id, html, png string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := map[string]any{"name": "projects/" + s.ProjectID + "/screens/" + id}
	if html != "" {
		s.files[id+".html"] = html
		meta["htmlCode"] = map[string]string{"downloadUrl": s.URL + "/files/" + id + ".html"}
	}
	if png != "" {
		s.files[id+".png"] = png
		meta["screenshot"] = map[string]string{"downloadUrl": s.URL + "/files/" + id + ".png"}
	}
	s.screens[id] = meta
}

// Requests returns the screen IDs requested so far, in order.
func (s *StitchServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *StitchServer) serveScreen(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Goog-Api-Key") != s.APIKey {
		writeGoogleError(w, http.StatusForbidden, "PERMISSION_DENIED", "API key not valid")
		return
	}
	prefix := "/v1/projects/" + s.ProjectID + "/screens/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeGoogleError(w, http.StatusNotFound, "NOT_FOUND", "project not found")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, prefix)

	s.mu.Lock()
	s.requests = append(s.requests, id)
	meta, ok := s.screens[id]
	s.mu.Unlock()
	if !ok {
		writeGoogleError(w, http.StatusNotFound, "NOT_FOUND", "screen not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meta)
}

func (s *StitchServer) serveFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/files/")
	s.mu.Lock()
	body, ok := s.files[name]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func writeGoogleError(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "status": status, "message": message},
	})
}
