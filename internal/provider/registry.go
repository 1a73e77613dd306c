package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/modelcatalog/internal/catalog"
)

// Registry builds provider catalogs from a fixed set of sources.
// Every call queries the sources again; nothing is cached. All methods are thread-safe.
type Registry struct {
	sources     []Source
	timeout     time.Duration
	concurrency int
	strict      bool
}

// Compile-time check that Registry implements catalog.Registry interface
var _ catalog.Registry = (*Registry)(nil)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTimeout bounds each source's discovery. Zero means no per-source bound.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

// WithConcurrency limits how many sources are queried at once. Zero means unlimited.
func WithConcurrency(n int) RegistryOption {
	return func(r *Registry) {
		r.concurrency = n
	}
}

// WithStrict makes a failing source fail the whole lookup instead of being skipped.
func WithStrict(strict bool) RegistryOption {
	return func(r *Registry) {
		r.strict = strict
	}
}

// NewRegistry creates a Registry over sources. Source names must be unique.
func NewRegistry(sources []Source, opts ...RegistryOption) (*Registry, error) {
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if src.Name() == "" {
			return nil, fmt.Errorf("provider source without name")
		}
		if _, ok := seen[src.Name()]; ok {
			return nil, fmt.Errorf("duplicate provider %q", src.Name())
		}
		seen[src.Name()] = struct{}{}
	}

	r := &Registry{sources: sources}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Names returns the provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, src := range r.sources {
		names[i] = src.Name()
	}
	return names
}

// ChatProviders returns the chat models of every provider that offers at least one.
func (r *Registry) ChatProviders(ctx context.Context) (catalog.ProviderCatalog, error) {
	return r.providers(ctx, catalog.KindChat)
}

// EmbeddingProviders returns the embedding models of every provider that offers at least one.
func (r *Registry) EmbeddingProviders(ctx context.Context) (catalog.ProviderCatalog, error) {
	return r.providers(ctx, catalog.KindEmbedding)
}

func (r *Registry) providers(ctx context.Context, kind catalog.Kind) (catalog.ProviderCatalog, error) {
	results := make([][]Model, len(r.sources))

	g, gCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, src := range r.sources {
		g.Go(func() error {
			models, err := r.discover(gCtx, src)
			if err != nil {
				if r.strict {
					return fmt.Errorf("provider %s: %w", src.Name(), err)
				}
				slog.WarnContext(gCtx, "provider discovery failed, skipping",
					"provider", src.Name(), "kind", kind, "error", err)
				return nil
			}
			results[i] = models
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Skipped sources must not turn a canceled request into an empty catalog.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(catalog.ProviderCatalog, len(r.sources))
	for i, src := range r.sources {
		models := make(catalog.ProviderModels)
		for _, m := range results[i] {
			if m.Kind == kind {
				models[m.ID] = m.Descriptor()
			}
		}
		if len(models) > 0 {
			out[src.Name()] = models
		}
	}
	return out, nil
}

func (r *Registry) discover(ctx context.Context, src Source) ([]Model, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return src.Models(ctx)
}
