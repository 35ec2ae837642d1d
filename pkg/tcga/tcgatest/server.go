// Package tcgatest runs an in-process stand-in for the TCGA job service.
package tcgatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const servicePath = "/tcga/damws"

// Server implements job submission, status and archive download. Every job becomes
// ready after PendingPolls pending status answers and serves Archive.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	submissions   int
	statusQueries int
	downloads     int
	pending       map[string]int
	queries       []url.Values

	// Archive is served for every ready job.
	Archive []byte
	// PendingPolls is how many status queries answer "Accepted" before "OK".
	PendingPolls int
	// NoData makes a submission answer with the soft "no data" fragment.
	NoData func(query url.Values) bool
	// Files are served under /files/ for listing and flat-file fetches.
	Files map[string][]byte
}

func NewServer(t *testing.T) *Server {
	t.Helper()

	srv := &Server{
		pending: make(map[string]int),
		Archive: []byte("archive"),
		Files:   make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(servicePath+"/jobprocess/json", srv.submit)
	mux.HandleFunc("/status/", srv.status)
	mux.HandleFunc("/archive/", srv.archive)
	mux.HandleFunc("/files/", srv.files)

	srv.Server = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (s *Server) ServiceURL() string { return s.URL + servicePath }

func (s *Server) Submissions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions
}

func (s *Server) StatusQueries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusQueries
}

func (s *Server) Downloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

// Calls is the total number of requests made to the job service.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions + s.statusQueries + s.downloads
}

// Queries returns the query strings of every submission, in order.
func (s *Server) Queries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	s.mu.Lock()
	s.submissions++
	s.queries = append(s.queries, query)
	ticket := fmt.Sprintf("ticket-%d", s.submissions)
	s.pending[ticket] = s.PendingPolls
	s.mu.Unlock()

	if query.Get("platform") == "" {
		http.Error(w, "platform is required", http.StatusBadRequest)
		return
	}
	if s.NoData != nil && s.NoData(query) {
		fmt.Fprint(w, "<h2>HTTP STATUS 204 - No data available</h2>")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ticket":           ticket,
		"submission-time":  "2015-06-01 12:00:00",
		"estimated-size":   len(s.Archive),
		"status-check-url": s.URL + "/status/" + ticket,
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	ticket := strings.TrimPrefix(r.URL.Path, "/status/")

	s.mu.Lock()
	s.statusQueries++
	remaining, ok := s.pending[ticket]
	if ok && remaining > 0 {
		s.pending[ticket] = remaining - 1
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	jobStatus := map[string]string{"status-message": "Accepted"}
	if remaining == 0 {
		jobStatus = map[string]string{
			"status-message": "OK",
			"archive-url":    s.URL + "/archive/" + ticket + ".tar",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"job-status": jobStatus})
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.downloads++
	data := s.Archive
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-tar")
	_, _ = w.Write(data)
}

// files serves a directory listing for paths ending in "/" and file bytes otherwise.
func (s *Server) files(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") {
		var b strings.Builder
		b.WriteString("<html><body><h1>Index</h1><a href=\"../\">Parent Directory</a>\n")
		s.mu.Lock()
		for name := range s.Files {
			dir, file := splitPath(name)
			if "/files/"+dir == r.URL.Path {
				fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", file, file)
			}
		}
		s.mu.Unlock()
		b.WriteString("</body></html>")
		_, _ = w.Write([]byte(b.String()))
		return
	}

	s.mu.Lock()
	data, ok := s.Files[strings.TrimPrefix(r.URL.Path, "/files/")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

func splitPath(name string) (string, string) {
	idx := strings.LastIndex(name, "/")
	return name[:idx+1], name[idx+1:]
}
