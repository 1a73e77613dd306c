package provider

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/oauth2"

	"github.com/florianilch/modelcatalog/internal/catalog"
)

// oauthBetaHeader enables OAuth bearer tokens on the Anthropic API.
const oauthBetaHeader = "oauth-2025-04-20"

// AnthropicConfig configures an Anthropic source.
type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	// OAuthToken is an OAuth access token. It takes precedence over APIKey.
	OAuthToken string

	Discover bool
	Models   []Model

	HTTPClient *http.Client
}

// AnthropicSource lists Anthropic chat models through the Models API.
type AnthropicSource struct {
	name       string
	client     anthropic.Client
	discover   bool
	configured []Model
}

// Compile-time check that AnthropicSource implements Source interface
var _ Source = (*AnthropicSource)(nil)

// NewAnthropicSource creates an Anthropic source.
func NewAnthropicSource(name string, cfg AnthropicConfig) *AnthropicSource {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	// Discovery failures surface to the caller as they are; no retries.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	switch {
	case cfg.OAuthToken != "":
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{
					AccessToken: cfg.OAuthToken,
					TokenType:   "Bearer",
				}),
				Base: httpClient.Transport,
			},
			Timeout: httpClient.Timeout,
		}
		opts = append(opts,
			option.WithHeaderDel("X-Api-Key"),
			option.WithHeaderAdd("anthropic-beta", oauthBetaHeader),
		)
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	opts = append(opts, option.WithHTTPClient(httpClient))

	return &AnthropicSource{
		name:       name,
		client:     anthropic.NewClient(opts...),
		discover:   cfg.Discover,
		configured: slices.Clone(cfg.Models),
	}
}

// Name returns the provider name.
func (s *AnthropicSource) Name() string {
	return s.name
}

// Models returns the configured models, overlaid on the live listing when discovery is on.
func (s *AnthropicSource) Models(ctx context.Context) ([]Model, error) {
	if !s.discover {
		return slices.Clone(s.configured), nil
	}

	var discovered []Model
	pager := s.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})
	for pager.Next() {
		info := pager.Current()
		discovered = append(discovered, Model{
			ID:          info.ID,
			DisplayName: info.DisplayName,
			Kind:        catalog.KindChat,
		})
	}
	if err := pager.Err(); err != nil {
		return nil, fmt.Errorf("listing models: %w", normalizeAPIError(err))
	}

	return mergeModels(discovered, s.configured), nil
}
