package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSource struct {
	mu       sync.Mutex
	calls    map[string]int
	missing  map[string]bool
	failing  map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newCountingSource() *countingSource {
	return &countingSource{
		calls:   make(map[string]int),
		missing: make(map[string]bool),
		failing: make(map[string]error),
	}
}

func (s *countingSource) Resolve(ctx context.Context, name string) (*VersionRecord, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err, ok := s.failing[name]; ok {
		return nil, err
	}
	if s.missing[name] {
		return nil, ErrNotFound
	}
	return &VersionRecord{Name: name, Versions: []string{"1.0.0"}, LatestTag: "1.0.0"}, nil
}

func (s *countingSource) callsFor(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func TestCache_ResolveFetchesOnce(t *testing.T) {
	src := newCountingSource()
	cache := NewCache(src)

	for i := 0; i < 3; i++ {
		record, err := cache.Resolve(context.Background(), "react")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Name != "react" {
			t.Errorf("expected record for react, got %s", record.Name)
		}
	}

	if got := src.callsFor("react"); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}
	if cache.Fetches() != 1 {
		t.Errorf("expected Fetches() == 1, got %d", cache.Fetches())
	}
}

func TestCache_ConcurrentResolveFetchesOnce(t *testing.T) {
	src := newCountingSource()
	src.delay = 20 * time.Millisecond
	cache := NewCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Resolve(context.Background(), "lodash"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.callsFor("lodash"); got != 1 {
		t.Errorf("expected 1 fetch under concurrency, got %d", got)
	}
}

func TestCache_NotFoundIsRemembered(t *testing.T) {
	src := newCountingSource()
	src.missing["@internal/private"] = true
	cache := NewCache(src)

	for i := 0; i < 2; i++ {
		_, err := cache.Resolve(context.Background(), "@internal/private")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if got := src.callsFor("@internal/private"); got != 1 {
		t.Errorf("expected 1 fetch for a missing package, got %d", got)
	}

	if _, ok := cache.Lookup("@internal/private"); ok {
		t.Error("Lookup should report a missing package as absent")
	}
}

func TestCache_Lookup(t *testing.T) {
	src := newCountingSource()
	cache := NewCache(src)

	if _, ok := cache.Lookup("react"); ok {
		t.Error("Lookup before Resolve should miss")
	}
	if src.callsFor("react") != 0 {
		t.Error("Lookup must not reach the source")
	}

	if _, err := cache.Resolve(context.Background(), "react"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record, ok := cache.Lookup("react")
	if !ok || record.LatestTag != "1.0.0" {
		t.Errorf("expected cached record, got %v (ok=%v)", record, ok)
	}
}

func TestCache_ResolveAll(t *testing.T) {
	src := newCountingSource()
	src.missing["ghost"] = true
	cache := NewCache(src)

	names := []string{"react", "react-dom", "react", "ghost", "react-dom", "ghost"}
	var progress bytes.Buffer
	err := cache.ResolveAll(context.Background(), names, &ResolveOptions{
		Concurrency:    2,
		Progress:       true,
		ProgressWriter: &progress,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"react", "react-dom", "ghost"} {
		if got := src.callsFor(name); got != 1 {
			t.Errorf("%s: expected 1 fetch, got %d", name, got)
		}
	}
	if cache.Fetches() != 3 {
		t.Errorf("expected 3 fetches, got %d", cache.Fetches())
	}
	if progress.Len() == 0 {
		t.Error("expected a progress bar to be drawn")
	}

	// a second pass is served entirely from memory
	if err := cache.ResolveAll(context.Background(), names, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.Fetches() != 3 {
		t.Errorf("expected no additional fetches, got %d", cache.Fetches())
	}
}

func TestCache_ResolveAllRespectsConcurrency(t *testing.T) {
	src := newCountingSource()
	src.delay = 10 * time.Millisecond
	cache := NewCache(src)

	names := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("pkg-%d", i))
	}

	if err := cache.ResolveAll(context.Background(), names, &ResolveOptions{Concurrency: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := src.peak.Load(); peak > 3 {
		t.Errorf("expected at most 3 lookups in flight, saw %d", peak)
	}
}

func TestCache_ResolveAllFailsOnSourceError(t *testing.T) {
	src := newCountingSource()
	src.failing["broken"] = &RegistryError{Name: "broken", URL: "https://registry.example/broken", StatusCode: 500}
	cache := NewCache(src)

	err := cache.ResolveAll(context.Background(), []string{"react", "broken"}, &ResolveOptions{Concurrency: 1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var registryErr *RegistryError
	if !errors.As(err, &registryErr) {
		t.Fatalf("expected RegistryError, got %T: %v", err, err)
	}
	if registryErr.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", registryErr.StatusCode)
	}
}
