package actions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/eweilow/paket/internal/source"
	"github.com/eweilow/paket/internal/source/npm"
)

type fakePackage struct {
	versions []string
	times    map[string]string
	latest   string
}

type fakeRegistry struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests map[string]int
}

func newFakeRegistry(t *testing.T, packages map[string]fakePackage) *fakeRegistry {
	t.Helper()
	registry := &fakeRegistry{requests: make(map[string]int)}
	registry.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")

		registry.mu.Lock()
		registry.requests[name]++
		registry.mu.Unlock()

		pkg, ok := packages[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(packumentJSON(name, pkg))
	}))
	t.Cleanup(registry.server.Close)
	return registry
}

// packumentJSON keeps versions in the listed order, which a Go map would lose
func packumentJSON(name string, pkg fakePackage) []byte {
	var b strings.Builder
	b.WriteString(`{"name":`)
	writeJSONString(&b, name)
	b.WriteString(`,"versions":{`)
	for i, version := range pkg.versions {
		if i > 0 {
			b.WriteString(",")
		}
		writeJSONString(&b, version)
		b.WriteString(`:{}`)
	}
	b.WriteString(`},"time":`)
	if pkg.times == nil {
		pkg.times = map[string]string{}
	}
	times, _ := json.Marshal(pkg.times)
	b.Write(times)
	b.WriteString(`,"dist-tags":{"latest":`)
	writeJSONString(&b, pkg.latest)
	b.WriteString(`}}`)
	return []byte(b.String())
}

func writeJSONString(b *strings.Builder, value string) {
	encoded, _ := json.Marshal(value)
	b.Write(encoded)
}

func (r *fakeRegistry) source() source.VersionSource {
	return source.NewRegistrySource(&npm.Options{BaseURL: r.server.URL})
}

func (r *fakeRegistry) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[name]
}

func (r *fakeRegistry) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, count := range r.requests {
		total += count
	}
	return total
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

func snapshot(t *testing.T, root string, names ...string) map[string]string {
	t.Helper()
	files := make(map[string]string, len(names))
	for _, name := range names {
		files[name] = readFile(t, root, name)
	}
	return files
}
