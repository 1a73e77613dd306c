package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/modelcatalog/internal/app"
)

const testConfigTOML = `
[server]
address = "0.0.0.0:8080"

[discovery]
timeout = "3s"

[providers.openai]
type = "static"

[[providers.openai.chat_models]]
id = "gpt-4"
display_name = "GPT-4"

[[providers.openai.embedding_models]]
id = "text-embedding-3"
display_name = "Embedding 3"

[providers.ollama]
type = "openai"
base_url = "http://localhost:11434/v1"
discover = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modelcatalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil, environ())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Address)
	assert.Equal(t, "/api/models", cfg.Server.ModelsPath)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxRequestBytes)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, 4, cfg.Discovery.Concurrency)
	assert.False(t, cfg.Discovery.Strict)
	assert.Equal(t, app.CredentialStorageConfig, cfg.Auth.Storage)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Providers)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, testConfigTOML)

	cfg, err := loadConfig(path, nil, environ(
		"MODELCATALOG_SERVER__MODELS_PATH=/v1/catalog",
		"MODELCATALOG_DISCOVERY__STRICT=true",
		"MODELCATALOG_DISCOVERY__CONCURRENCY=8",
		"MODELCATALOG_PROVIDERS__OLLAMA__API_KEY=ollama-key",
		"MODELCATALOG_CONFIG=/ignored.toml",
		"OTHER_SERVER__ADDRESS=ignored:1",
	))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address, "file overrides defaults")
	assert.Equal(t, "/v1/catalog", cfg.Server.ModelsPath, "environment overrides defaults")
	assert.Equal(t, 3*time.Second, cfg.Discovery.Timeout)
	assert.True(t, cfg.Discovery.Strict)
	assert.Equal(t, 8, cfg.Discovery.Concurrency)

	require.Contains(t, cfg.Providers, "openai")
	assert.Equal(t, app.ProviderConfig{
		Type:            app.ProviderTypeStatic,
		ChatModels:      []app.ModelConfig{{ID: "gpt-4", DisplayName: "GPT-4"}},
		EmbeddingModels: []app.ModelConfig{{ID: "text-embedding-3", DisplayName: "Embedding 3"}},
	}, cfg.Providers["openai"])

	ollama := cfg.Providers["ollama"]
	assert.Equal(t, app.ProviderTypeOpenAI, ollama.Type)
	assert.Equal(t, "http://localhost:11434/v1", ollama.BaseURL)
	assert.Equal(t, "ollama-key", ollama.APIKey)
	assert.True(t, ollama.Discover)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, testConfigTOML)

	var cfg *app.Config
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "address"},
			&cli.StringFlag{Name: "models-path"},
			&cli.BoolFlag{Name: "metrics"},
			&cli.BoolFlag{Name: "strict"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error
			cfg, err = loadConfig(path, cmd, environ("MODELCATALOG_SERVER__ADDRESS=10.0.0.1:9000"))
			return err
		},
	}

	err := cmd.Run(context.Background(), []string{"test", "--address", "127.0.0.1:7000", "--metrics"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Address)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/api/models", cfg.Server.ModelsPath, "unset flags keep lower layers")
	assert.False(t, cfg.Discovery.Strict)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), nil, environ())
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("malformed toml", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, "[server\naddress ="), nil, environ())
		assert.ErrorContains(t, err, "loading config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := loadConfig("", nil, environ("MODELCATALOG_AUTH__STORAGE=vault"))
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("undecodable duration", func(t *testing.T) {
		_, err := loadConfig("", nil, environ("MODELCATALOG_DISCOVERY__TIMEOUT=soon"))
		assert.ErrorContains(t, err, "decoding config")
	})
}

func TestTransformEnv(t *testing.T) {
	tests := map[string]string{
		"MODELCATALOG_SERVER__ADDRESS":           "server.address",
		"MODELCATALOG_PROVIDERS__GROQ__BASE_URL": "providers.groq.base_url",
		"MODELCATALOG_METRICS__ENABLED":          "metrics.enabled",
		"MODELCATALOG_CONFIG":                    "",
	}
	for in, want := range tests {
		key, _ := transformEnv(in, "v")
		assert.Equal(t, want, key, in)
	}
}

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
}
