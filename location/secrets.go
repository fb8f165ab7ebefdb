package location

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// SecretStore holds location passwords outside the settings file.
type SecretStore interface {
	Password(location string) (string, error)
	SetPassword(location, password string) error
}

const keyringService = "backupctl"

// KeyringStore keeps passwords in the OS keychain, one entry per location.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed secret store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

// Password returns the stored password for location.
func (k *KeyringStore) Password(location string) (string, error) {
	secret, err := keyring.Get(k.service, location)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return secret, nil
}

// SetPassword stores password for location, replacing any previous one.
func (k *KeyringStore) SetPassword(location, password string) error {
	if location == "" || password == "" {
		return fmt.Errorf("%w: location and password are required", ErrInvalidField)
	}
	if err := keyring.Set(k.service, location, password); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}
