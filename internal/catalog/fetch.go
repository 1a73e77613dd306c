package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const unknownErrorMessage = "unknown error"

// errNoRegistry is the cause reported when Fetch is given no Registry.
var errNoRegistry = errors.New("no registry configured")

// FetchError reports a failed catalog lookup.
// Every failure of a Registry call, whatever its cause, surfaces as a FetchError.
type FetchError struct {
	Kind Kind
	Err  error
}

// Error returns the cause's message unchanged, which is what clients get to see.
// An empty message stays empty.
func (e *FetchError) Error() string {
	if e.Err == nil {
		return unknownErrorMessage
	}
	return e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetch looks up the chat and embedding catalogs concurrently and waits for both.
// The first failure cancels the other lookup and is returned as a *FetchError;
// a partial Listing is never returned.
func Fetch(ctx context.Context, registry Registry) (*Listing, error) {
	if registry == nil {
		return nil, &FetchError{Kind: KindChat, Err: errNoRegistry}
	}

	g, gCtx := errgroup.WithContext(ctx)

	// The method is selected inside lookup so that a nil receiver panics under its recover.
	var chat, embedding ProviderCatalog
	g.Go(func() error {
		var err error
		chat, err = lookup(gCtx, KindChat, func(ctx context.Context) (ProviderCatalog, error) {
			return registry.ChatProviders(ctx)
		})
		return err
	})
	g.Go(func() error {
		var err error
		embedding, err = lookup(gCtx, KindEmbedding, func(ctx context.Context) (ProviderCatalog, error) {
			return registry.EmbeddingProviders(ctx)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Listing{
		ChatModelProviders:      orEmpty(chat),
		EmbeddingModelProviders: orEmpty(embedding),
	}, nil
}

// lookup runs one registry call and normalizes errors and panics into a *FetchError.
func lookup(
	ctx context.Context,
	kind Kind,
	fetch func(context.Context) (ProviderCatalog, error),
) (c ProviderCatalog, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			c, err = nil, &FetchError{Kind: kind, Err: cause}
		}
	}()

	c, err = fetch(ctx)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, &FetchError{Kind: kind, Err: err}
	}
	return c, nil
}
