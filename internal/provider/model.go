package provider

import (
	"context"
	"slices"
	"strings"

	"github.com/florianilch/modelcatalog/internal/catalog"
)

// Model is a model offered by a provider as known to the registry.
type Model struct {
	ID           string
	DisplayName  string
	Kind         catalog.Kind
	Capabilities []string
}

// Descriptor projects the model onto its client-facing form.
func (m Model) Descriptor() catalog.ModelDescriptor {
	name := m.DisplayName
	if name == "" {
		name = m.ID
	}
	return catalog.ModelDescriptor{
		DisplayName:  name,
		Capabilities: slices.Clone(m.Capabilities),
	}
}

// Source discovers the models of a single provider.
// Implementations own whatever clients they need; those never leave the source.
type Source interface {
	Name() string
	Models(ctx context.Context) ([]Model, error)
}

// classifyModelID guesses the kind of a discovered model from its id.
// OpenAI-compatible listings carry no kind, but embedding model ids contain "embed"
// across OpenAI, Ollama, LM Studio and most gateways.
func classifyModelID(id string) catalog.Kind {
	if strings.Contains(strings.ToLower(id), "embed") {
		return catalog.KindEmbedding
	}
	return catalog.KindChat
}

// mergeModels overlays configured models on discovered ones.
// A configured model replaces a discovered model with the same id; the rest are appended.
func mergeModels(discovered, configured []Model) []Model {
	merged := make([]Model, 0, len(discovered)+len(configured))
	index := make(map[string]int, len(discovered))
	for _, m := range discovered {
		index[m.ID] = len(merged)
		merged = append(merged, m)
	}
	for _, m := range configured {
		if i, ok := index[m.ID]; ok {
			merged[i] = m
			continue
		}
		index[m.ID] = len(merged)
		merged = append(merged, m)
	}
	return merged
}

// StaticSource serves a fixed model list without any I/O.
type StaticSource struct {
	name   string
	models []Model
}

// NewStaticSource creates a source that always returns models.
func NewStaticSource(name string, models []Model) *StaticSource {
	return &StaticSource{name: name, models: slices.Clone(models)}
}

// Name returns the provider name.
func (s *StaticSource) Name() string {
	return s.name
}

// Models returns a copy of the configured models.
func (s *StaticSource) Models(ctx context.Context) ([]Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.models), nil
}
