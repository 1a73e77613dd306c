package app

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/modelcatalog/internal/catalog"
	"github.com/florianilch/modelcatalog/internal/provider"
	"github.com/florianilch/modelcatalog/internal/server"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig              `koanf:"server"`
	Discovery DiscoveryConfig           `koanf:"discovery"`
	Auth      AuthConfig                `koanf:"auth"`
	Metrics   MetricsConfig             `koanf:"metrics"`
	Providers map[string]ProviderConfig `koanf:"providers" validate:"dive"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address           string        `koanf:"address" validate:"required,hostname_port"`
	ModelsPath        string        `koanf:"models_path" validate:"required,startswith=/"`
	MaxRequestBytes   int64         `koanf:"max_request_bytes" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
}

// DiscoveryConfig controls how providers are queried for their models.
type DiscoveryConfig struct {
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Concurrency int           `koanf:"concurrency" validate:"gte=1,lte=64"`
	// Strict fails the whole listing when any provider fails.
	Strict bool `koanf:"strict"`
}

// CredentialStorageType selects where provider API keys come from.
type CredentialStorageType string

const (
	// CredentialStorageConfig reads keys from configuration only (file or environment).
	CredentialStorageConfig CredentialStorageType = "config"
	// CredentialStorageKeyring falls back to the OS keyring for keys missing in configuration.
	CredentialStorageKeyring CredentialStorageType = "keyring"
)

// AuthConfig configures provider credentials.
type AuthConfig struct {
	Storage CredentialStorageType `koanf:"storage" validate:"required,oneof=config keyring"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"omitempty,startswith=/"`
}

// ProviderType selects the Source implementation of a provider.
type ProviderType string

const (
	ProviderTypeStatic    ProviderType = "static"
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
)

// ProviderConfig configures one model provider.
type ProviderConfig struct {
	Type       ProviderType `koanf:"type" validate:"required,oneof=static openai anthropic"`
	BaseURL    string       `koanf:"base_url" validate:"omitempty,url"`
	APIKey     string       `koanf:"api_key"`
	OAuthToken string       `koanf:"oauth_token"`
	Discover   bool         `koanf:"discover"`

	ChatModels      []ModelConfig `koanf:"chat_models" validate:"dive"`
	EmbeddingModels []ModelConfig `koanf:"embedding_models" validate:"dive"`
}

// ModelConfig declares a model explicitly.
type ModelConfig struct {
	ID           string   `koanf:"id" validate:"required"`
	DisplayName  string   `koanf:"display_name"`
	Capabilities []string `koanf:"capabilities"`
}

// Defaults returns the default configuration as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"server.address":             "127.0.0.1:4000",
		"server.models_path":         server.DefaultModelsPath,
		"server.max_request_bytes":   server.DefaultMaxRequestBytes,
		"server.shutdown_timeout":    "5s",
		"server.read_header_timeout": "10s",
		"discovery.timeout":          "10s",
		"discovery.concurrency":      4,
		"discovery.strict":           false,
		"auth.storage":               string(CredentialStorageConfig),
		"metrics.enabled":            false,
		"metrics.path":               "/metrics",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if c.Metrics.Enabled {
		switch c.Metrics.Path {
		case "":
			errs = append(errs, errors.New("metrics.path is required when metrics are enabled"))
		case c.Server.ModelsPath:
			errs = append(errs, errors.New("metrics.path must differ from server.models_path"))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Providers)) {
		p := c.Providers[name]
		if name == "" {
			errs = append(errs, errors.New("provider name must not be empty"))
		}
		switch p.Type {
		case ProviderTypeStatic:
			if p.Discover {
				errs = append(errs, fmt.Errorf("provider %s: static providers cannot discover models", name))
			}
		case ProviderTypeAnthropic:
			if len(p.EmbeddingModels) > 0 {
				errs = append(errs, fmt.Errorf("provider %s: anthropic offers no embedding models", name))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// NewRegistry builds the provider registry described by the configuration.
// With keyring storage, providers without an api_key get their key from creds.
func (c *Config) NewRegistry(creds CredentialStore) (*provider.Registry, error) {
	names := slices.Sorted(maps.Keys(c.Providers))
	sources := make([]provider.Source, 0, len(names))

	for _, name := range names {
		p := c.Providers[name]

		apiKey := p.APIKey
		if apiKey == "" && p.OAuthToken == "" && p.Type != ProviderTypeStatic &&
			c.Auth.Storage == CredentialStorageKeyring && creds != nil {
			key, err := creds.Get(name)
			if err != nil {
				return nil, fmt.Errorf("provider %s: reading credentials: %w", name, err)
			}
			apiKey = key
		}

		models := p.models()
		switch p.Type {
		case ProviderTypeStatic:
			sources = append(sources, provider.NewStaticSource(name, models))
		case ProviderTypeOpenAI:
			sources = append(sources, provider.NewOpenAISource(name, provider.OpenAIConfig{
				BaseURL:  p.BaseURL,
				APIKey:   apiKey,
				Discover: p.Discover,
				Models:   models,
			}))
		case ProviderTypeAnthropic:
			sources = append(sources, provider.NewAnthropicSource(name, provider.AnthropicConfig{
				BaseURL:    p.BaseURL,
				APIKey:     apiKey,
				OAuthToken: p.OAuthToken,
				Discover:   p.Discover,
				Models:     models,
			}))
		default:
			return nil, fmt.Errorf("provider %s: unsupported type %q", name, p.Type)
		}
	}

	return provider.NewRegistry(sources,
		provider.WithTimeout(c.Discovery.Timeout),
		provider.WithConcurrency(c.Discovery.Concurrency),
		provider.WithStrict(c.Discovery.Strict),
	)
}

// models flattens the configured chat and embedding models.
func (p ProviderConfig) models() []provider.Model {
	models := make([]provider.Model, 0, len(p.ChatModels)+len(p.EmbeddingModels))
	for _, m := range p.ChatModels {
		models = append(models, m.model(catalog.KindChat))
	}
	for _, m := range p.EmbeddingModels {
		models = append(models, m.model(catalog.KindEmbedding))
	}
	return models
}

func (m ModelConfig) model(kind catalog.Kind) provider.Model {
	return provider.Model{
		ID:           m.ID,
		DisplayName:  m.DisplayName,
		Kind:         kind,
		Capabilities: slices.Clone(m.Capabilities),
	}
}
