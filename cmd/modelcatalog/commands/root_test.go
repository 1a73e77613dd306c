package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/florianilch/modelcatalog/internal/app"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	restoreDefaultLogger(t)

	var out bytes.Buffer
	cmd := newRootCommand("test", "abc123")
	cmd.Writer = &out
	err := cmd.Run(context.Background(), append([]string{"modelcatalog"}, args...))
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	path := writeConfig(t, `
[providers.openai]
type = "static"

[[providers.openai.chat_models]]
id = "gpt-4"
display_name = "GPT-4"

[[providers.openai.embedding_models]]
id = "text-embedding-3"
display_name = "Embedding 3"
`)

	out, err := runRoot(t, "--config", path, "--log-level", "error", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"chatModelProviders": {"openai": {"gpt-4": {"displayName": "GPT-4"}}},
		"embeddingModelProviders": {"openai": {"text-embedding-3": {"displayName": "Embedding 3"}}}
	}`, out)
}

func TestListCommand_InvalidLogLevel(t *testing.T) {
	_, err := runRoot(t, "--log-level", "loud", "list")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestAuthCommands(t *testing.T) {
	keyring.MockInit()

	keyringConfig := writeConfig(t, `
[auth]
storage = "keyring"

[providers.groq]
type = "openai"
base_url = "https://api.groq.com/openai/v1"

[providers.local]
type = "static"
`)
	configOnly := writeConfig(t, `
[providers.groq]
type = "openai"
`)

	t.Run("clear removes stored key", func(t *testing.T) {
		store := app.KeyringStore{Service: app.KeyringService}
		require.NoError(t, store.Set("groq", "gsk-123"))

		out, err := runRoot(t, "--config", keyringConfig, "auth", "clear", "groq")
		require.NoError(t, err)
		assert.Contains(t, out, "API key for groq removed")

		key, err := store.Get("groq")
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("missing provider argument", func(t *testing.T) {
		_, err := runRoot(t, "--config", keyringConfig, "auth", "clear")
		assert.EqualError(t, err, "provider name is required")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := runRoot(t, "--config", keyringConfig, "auth", "set", "mistral")
		assert.EqualError(t, err, `provider "mistral" is not configured`)
	})

	t.Run("static provider", func(t *testing.T) {
		_, err := runRoot(t, "--config", keyringConfig, "auth", "clear", "local")
		assert.EqualError(t, err, `provider "local" is static and needs no api key`)
	})

	t.Run("read-only storage", func(t *testing.T) {
		_, err := runRoot(t, "--config", configOnly, "auth", "clear", "groq")
		assert.ErrorContains(t, err, "read-only")
	})
}
