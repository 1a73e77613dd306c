package app

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service under which provider API keys are stored.
const KeyringService = "modelcatalog"

// CredentialStore reads provider API keys.
type CredentialStore interface {
	// Get returns the stored key, or "" when none is stored.
	Get(provider string) (string, error)
}

// KeyringStore keeps provider API keys in the OS keyring, one entry per provider.
type KeyringStore struct {
	Service string
}

// Compile-time check that KeyringStore implements CredentialStore interface
var _ CredentialStore = KeyringStore{}

func (s KeyringStore) Get(provider string) (string, error) {
	secret, err := keyring.Get(s.Service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return secret, nil
}

// Set stores the key for provider, replacing any previous one.
func (s KeyringStore) Set(provider, secret string) error {
	if secret == "" {
		return errors.New("api key cannot be empty")
	}
	if err := keyring.Set(s.Service, provider, secret); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete removes the key for provider. Deleting a missing key is not an error.
func (s KeyringStore) Delete(provider string) error {
	err := keyring.Delete(s.Service, provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// NewCredentialStore returns the writable store for the configured storage type.
// Config storage is read-only and yields an error.
func (a AuthConfig) NewCredentialStore() (KeyringStore, error) {
	switch a.Storage {
	case CredentialStorageKeyring:
		return KeyringStore{Service: KeyringService}, nil
	case CredentialStorageConfig:
		return KeyringStore{}, errors.New("config storage is read-only; set auth.storage to keyring")
	default:
		return KeyringStore{}, fmt.Errorf("unsupported credential storage %q", a.Storage)
	}
}
