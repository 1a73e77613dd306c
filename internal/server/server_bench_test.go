package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/florianilch/modelcatalog/internal/catalog"
	"github.com/florianilch/modelcatalog/internal/provider"
)

// alwaysReady reports ready status for benchmarks.
type alwaysReady struct{}

func (alwaysReady) IsReady() bool {
	return true
}

// newBenchRegistry builds a registry of static sources, each with chat and embedding models.
func newBenchRegistry(b *testing.B, providers, modelsPerProvider int) *provider.Registry {
	b.Helper()

	sources := make([]provider.Source, 0, providers)
	for p := range providers {
		models := make([]provider.Model, 0, modelsPerProvider)
		for m := range modelsPerProvider {
			kind := catalog.KindChat
			if m%4 == 0 {
				kind = catalog.KindEmbedding
			}
			models = append(models, provider.Model{
				ID:          fmt.Sprintf("model-%d", m),
				DisplayName: fmt.Sprintf("Model %d", m),
				Kind:        kind,
			})
		}
		sources = append(sources, provider.NewStaticSource(fmt.Sprintf("provider-%d", p), models))
	}

	registry, err := provider.NewRegistry(sources)
	if err != nil {
		b.Fatalf("Failed to create registry: %v", err)
	}
	return registry
}

// setupBenchServer creates a Server with the full middleware stack.
// Suppresses logging to isolate benchmark measurements from I/O overhead.
func setupBenchServer(b *testing.B, registry catalog.Registry) *httptest.Server {
	b.Helper()

	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv, err := New(registry, alwaysReady{}, WithObserver(NewLogObserver(nil)))
	if err != nil {
		b.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(srv)
	b.Cleanup(ts.Close)
	return ts
}

// BenchmarkModelListing measures end-to-end listing latency for growing catalogs.
// Includes routing, middleware, both registry lookups and JSON encoding.
func BenchmarkModelListing(b *testing.B) {
	scenarios := []struct {
		name      string
		providers int
		models    int
	}{
		{name: "small", providers: 2, models: 4},
		{name: "medium", providers: 8, models: 32},
		{name: "large", providers: 32, models: 128},
	}

	for _, s := range scenarios {
		b.Run(s.name, func(b *testing.B) {
			ts := setupBenchServer(b, newBenchRegistry(b, s.providers, s.models))

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				resp, err := http.Get(ts.URL + DefaultModelsPath)
				if err != nil {
					b.Fatalf("Request failed: %v", err)
				}
				if resp.StatusCode != http.StatusOK {
					b.Fatalf("Unexpected status code: %d", resp.StatusCode)
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		})
	}
}

// BenchmarkModelListingConcurrent measures listing throughput under concurrent load.
func BenchmarkModelListingConcurrent(b *testing.B) {
	ts := setupBenchServer(b, newBenchRegistry(b, 8, 32))

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := http.Get(ts.URL + DefaultModelsPath)
			if err != nil {
				b.Error(err)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	})
}

// BenchmarkPreflight measures the registry-free OPTIONS path.
func BenchmarkPreflight(b *testing.B) {
	ts := setupBenchServer(b, newBenchRegistry(b, 1, 1))
	req, err := http.NewRequest(http.MethodOptions, ts.URL+DefaultModelsPath, nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			b.Fatalf("Request failed: %v", err)
		}
		_ = resp.Body.Close()
	}
}
