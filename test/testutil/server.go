// Package testutil holds helpers shared by the package tests: an httptest
// repository that counts requests, and builders for on-disk PDF sets.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glorpus-work/lhamgr/pkg/archive"
)

// RepoServer is an HTTP repository serving in-memory files. Unknown paths get
// a 404. Every request is counted per path.
type RepoServer struct {
	*httptest.Server

	mu     sync.Mutex
	files  map[string][]byte
	status map[string]int
	hits   map[string]int
	delay  time.Duration
}

// NewRepoServer starts a repository server that is closed with the test.
func NewRepoServer(t testing.TB) *RepoServer {
	t.Helper()
	s := &RepoServer{
		files:  make(map[string][]byte),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *RepoServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	body, ok := s.files[r.URL.Path]
	code, forced := s.status[r.URL.Path]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if forced {
		w.WriteHeader(code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	_, _ = w.Write(body)
}

// Put serves body at path, e.g. "/ExampleSet.tar.gz".
func (s *RepoServer) Put(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = body
}

// SetStatus makes path answer with the given status code and no body.
func (s *RepoServer) SetStatus(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = code
}

// SetDelay delays every response.
func (s *RepoServer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Hits returns the number of requests for path.
func (s *RepoServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests for all paths.
func (s *RepoServer) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// WriteSet creates <dir>/<name>/ with an info file and one data file per
// member, and returns the set directory.
func WriteSet(t testing.TB, dir, name string, members, setIndex int) string {
	t.Helper()
	setDir := filepath.Join(dir, name)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		t.Fatalf("Failed to create set dir: %v", err)
	}

	info := fmt.Sprintf(`SetDesc: "%s test set"
SetIndex: %d
Authors: lhamgr tests
Format: lhagrid1
DataVersion: 1
NumMembers: %d
Flavors: [-3, -2, -1, 1, 2, 3, 21]
ErrorType: replicas
XMin: 1.0e-09
XMax: 1
`, name, setIndex, members)
	if err := os.WriteFile(filepath.Join(setDir, name+".info"), []byte(info), 0o644); err != nil {
		t.Fatalf("Failed to write info file: %v", err)
	}

	for m := 0; m < members; m++ {
		pdfType := "replica"
		if m == 0 {
			pdfType = "central"
		}
		dat := fmt.Sprintf("PdfType: %s\nFormat: lhagrid1\n---\n1.0e-09 1.0\n---\n", pdfType)
		path := filepath.Join(setDir, fmt.Sprintf("%s_%04d.dat", name, m))
		if err := os.WriteFile(path, []byte(dat), 0o644); err != nil {
			t.Fatalf("Failed to write data file: %v", err)
		}
	}
	return setDir
}

// BuildSetArchive returns a tar.gz of a generated set. With nested the files
// sit below a top-level <name>/ directory, the layout repositories use.
func BuildSetArchive(t testing.TB, name string, members, setIndex int, nested bool) []byte {
	t.Helper()
	tmp := t.TempDir()
	setDir := WriteSet(t, filepath.Join(tmp, "src"), name, members, setIndex)

	root := ""
	if nested {
		root = name
	}
	archivePath := filepath.Join(tmp, name+".tar.gz")
	if err := archive.NewManager().Create(context.Background(), setDir, archivePath, root); err != nil {
		t.Fatalf("Failed to create set archive: %v", err)
	}
	data, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("Failed to read set archive: %v", err)
	}
	return data
}

// IndexContent renders pdfsets.index lines from "id name" pairs.
func IndexContent(entries ...string) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteString(" 1\n")
	}
	return []byte(b.String())
}

// WriteIndex writes pdfsets.index into dir.
func WriteIndex(t testing.TB, dir string, entries ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create index dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pdfsets.index"), IndexContent(entries...), 0o644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}
}

// SetupTestConfig writes a config file pointing at the given write directory,
// repository and index URL, and returns its path.
func SetupTestConfig(t testing.TB, writeDir, repoURL, indexURL string) string {
	t.Helper()

	configStr := fmt.Sprintf(`write_dir: %q
read_dirs: []
index_url: %q
repositories:
  - %q
settings:
  http_timeout: 5s
  lock_timeout: 10s
  index_refresh_interval: 0s
  log_level: info
`, writeDir, indexURL, repoURL)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configStr), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}
