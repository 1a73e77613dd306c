package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/modelcatalog/internal/catalog"
)

func newOpenAIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAISource_Discover(t *testing.T) {
	server := newOpenAIServer(t, http.StatusOK, `{
		"object": "list",
		"data": [
			{"id": "llama3.1:8b", "object": "model", "owned_by": "library"},
			{"id": "nomic-embed-text:latest", "object": "model", "owned_by": "library"}
		]
	}`)

	source := NewOpenAISource("ollama", OpenAIConfig{
		BaseURL:  server.URL + "/v1/",
		APIKey:   "sk-test",
		Discover: true,
		Models: []Model{
			{ID: "llama3.1:8b", DisplayName: "Llama 3.1 8B", Kind: catalog.KindChat},
		},
	})

	models, err := source.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Model{
		{ID: "llama3.1:8b", DisplayName: "Llama 3.1 8B", Kind: catalog.KindChat},
		{ID: "nomic-embed-text:latest", DisplayName: "nomic-embed-text:latest", Kind: catalog.KindEmbedding},
	}, models)
}

func TestOpenAISource_DiscoverError(t *testing.T) {
	server := newOpenAIServer(t, http.StatusUnauthorized,
		`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)

	source := NewOpenAISource("openai", OpenAIConfig{
		BaseURL:  server.URL + "/v1",
		APIKey:   "sk-test",
		Discover: true,
	})

	models, err := source.Models(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "listing models: 401 invalid_request_error: Incorrect API key provided")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Nil(t, models)
}

func TestOpenAISource_ConfiguredOnly(t *testing.T) {
	configured := []Model{
		{ID: "gpt-4o", DisplayName: "GPT-4 omni", Kind: catalog.KindChat},
		{ID: "text-embedding-3-small", DisplayName: "Text Embedding 3 Small", Kind: catalog.KindEmbedding},
	}
	// No server: without discovery the source must not touch the network.
	source := NewOpenAISource("openai", OpenAIConfig{
		BaseURL: "http://127.0.0.1:0/v1",
		Models:  configured,
	})

	models, err := source.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, configured, models)
	assert.Equal(t, "openai", source.Name())
}

func TestClassifyModelID(t *testing.T) {
	tests := map[string]catalog.Kind{
		"gpt-4o":                  catalog.KindChat,
		"text-embedding-3-large":  catalog.KindEmbedding,
		"nomic-embed-text:latest": catalog.KindEmbedding,
		"mxbai-EMBED-large":       catalog.KindEmbedding,
		"deepseek-chat":           catalog.KindChat,
		"text-embedding-ada-002":  catalog.KindEmbedding,
		"llama-3.3-70b-versatile": catalog.KindChat,
		"models/gemini-embedding": catalog.KindEmbedding,
		"claude-3-5-haiku-latest": catalog.KindChat,
	}
	for id, want := range tests {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, want, classifyModelID(id))
		})
	}
}
