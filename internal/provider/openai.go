package provider

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible source.
type OpenAIConfig struct {
	// BaseURL of the API including the version prefix, e.g. http://localhost:11434/v1.
	// Empty means api.openai.com.
	BaseURL string
	APIKey  string

	// Discover lists live models from the API; otherwise only Models are served.
	Discover bool
	Models   []Model

	HTTPClient *http.Client
}

// OpenAISource lists models of any OpenAI-compatible API
// (OpenAI, Groq, DeepSeek, LM Studio, Ollama, custom gateways).
type OpenAISource struct {
	name       string
	client     *openai.Client
	discover   bool
	configured []Model
}

// Compile-time check that OpenAISource implements Source interface
var _ Source = (*OpenAISource)(nil)

// NewOpenAISource creates an OpenAI-compatible source.
func NewOpenAISource(name string, cfg OpenAIConfig) *OpenAISource {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAISource{
		name:       name,
		client:     openai.NewClientWithConfig(clientCfg),
		discover:   cfg.Discover,
		configured: slices.Clone(cfg.Models),
	}
}

// Name returns the provider name.
func (s *OpenAISource) Name() string {
	return s.name
}

// Models returns the configured models, overlaid on the live listing when discovery is on.
func (s *OpenAISource) Models(ctx context.Context) ([]Model, error) {
	if !s.discover {
		return slices.Clone(s.configured), nil
	}

	list, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", normalizeAPIError(err))
	}

	discovered := make([]Model, 0, len(list.Models))
	for _, m := range list.Models {
		if m.ID == "" {
			continue
		}
		discovered = append(discovered, Model{
			ID:          m.ID,
			DisplayName: m.ID,
			Kind:        classifyModelID(m.ID),
		})
	}

	return mergeModels(discovered, s.configured), nil
}
