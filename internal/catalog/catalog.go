// Package catalog defines the client-facing model catalog and assembles it from a
// Registry.
//
// A Listing holds two ProviderCatalogs, one for chat models and one for embedding
// models. Catalogs contain only ModelDescriptors: live client handles stay with the
// Registry implementation and are never part of this package's types, so nothing
// here can serialize them.
package catalog

import (
	"context"
	"maps"
)

// Kind identifies which catalog a model belongs to.
type Kind string

const (
	KindChat      Kind = "chat"
	KindEmbedding Kind = "embedding"
)

// ModelDescriptor describes one model as exposed to clients.
type ModelDescriptor struct {
	DisplayName  string   `json:"displayName"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// ProviderModels maps model names to their descriptors.
type ProviderModels map[string]ModelDescriptor

// ProviderCatalog maps provider names to the models they offer.
type ProviderCatalog map[string]ProviderModels

// Listing is the document served by the model listing endpoint.
type Listing struct {
	ChatModelProviders      ProviderCatalog `json:"chatModelProviders"`
	EmbeddingModelProviders ProviderCatalog `json:"embeddingModelProviders"`
}

// Registry supplies provider catalogs.
// Implementations must be safe for concurrent use and return a fresh catalog per call.
type Registry interface {
	ChatProviders(ctx context.Context) (ProviderCatalog, error)
	EmbeddingProviders(ctx context.Context) (ProviderCatalog, error)
}

// orEmpty replaces nil maps so they encode as {} rather than null.
// The registry's catalog is never written to; a copy is made when a provider
// needs normalizing.
func orEmpty(c ProviderCatalog) ProviderCatalog {
	if c == nil {
		return ProviderCatalog{}
	}

	var out ProviderCatalog
	for name, models := range c {
		if models != nil {
			continue
		}
		if out == nil {
			out = maps.Clone(c)
		}
		out[name] = ProviderModels{}
	}
	if out == nil {
		return c
	}
	return out
}
