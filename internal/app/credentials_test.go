package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := KeyringStore{Service: KeyringService}

	key, err := store.Get("openai")
	require.NoError(t, err)
	assert.Empty(t, key, "missing key is not an error")

	require.NoError(t, store.Set("openai", "sk-test"))
	key, err = store.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	require.NoError(t, store.Delete("openai"))
	require.NoError(t, store.Delete("openai"), "deleting twice is fine")
	key, err = store.Get("openai")
	require.NoError(t, err)
	assert.Empty(t, key)

	assert.EqualError(t, store.Set("openai", ""), "api key cannot be empty")
}

func TestAuthConfig_NewCredentialStore(t *testing.T) {
	store, err := AuthConfig{Storage: CredentialStorageKeyring}.NewCredentialStore()
	require.NoError(t, err)
	assert.Equal(t, KeyringService, store.Service)

	_, err = AuthConfig{Storage: CredentialStorageConfig}.NewCredentialStore()
	assert.ErrorContains(t, err, "read-only")

	_, err = AuthConfig{Storage: "vault"}.NewCredentialStore()
	assert.EqualError(t, err, `unsupported credential storage "vault"`)
}
