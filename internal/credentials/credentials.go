package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

// ServiceName is the keychain service the API key is stored under
const ServiceName = "devsetup"

// APIKeyItem is the keyring key holding the advisor API key
const APIKeyItem = "advisor-api-key"

// ErrNotFound is returned when no credential is stored
var ErrNotFound = errors.New("credential not found")

// Source says where a resolved credential came from
type Source string

const (
	SourceNone    Source = "none"
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// Store persists a single secret per key
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// KeyringStore keeps secrets in the OS keychain, falling back to an
// encrypted file under FileDir.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringOptions configures the keyring backends
type KeyringOptions struct {
	FileDir string
	// FilePassword unlocks the file backend; required when no OS keychain exists.
	FilePassword keyring.PromptFunc
	Backends     []keyring.BackendType
}

// NewKeyringStore opens the keyring
func NewKeyringStore(opts KeyringOptions) (*KeyringStore, error) {
	backends := opts.Backends
	if len(backends) == 0 {
		backends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.FileBackend,
		}
	}
	prompt := opts.FilePassword
	if prompt == nil {
		prompt = keyring.FixedStringPrompt(ServiceName)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:      ServiceName,
		AllowedBackends:  backends,
		FileDir:          opts.FileDir,
		FilePasswordFunc: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

func (s *KeyringStore) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return string(item.Data), nil
}

func (s *KeyringStore) Set(key, value string) error {
	if err := s.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "devsetup " + key,
		Description: "devsetup remediation advisor credential",
	}); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Delete removes key; a missing key is not an error.
func (s *KeyringStore) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// file backend reports a missing item as a path error
func isNotFound(err error) bool {
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "no such file") || strings.Contains(msg, "not found")
}

// Resolve picks the credential from the flag, then the environment variable
// envName, then the store. A blank result is SourceNone with no error.
func Resolve(flagValue, envName string, store Store) (string, Source, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, SourceFlag, nil
	}
	if envName != "" {
		if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
			return v, SourceEnv, nil
		}
	}
	if store == nil {
		return "", SourceNone, nil
	}
	v, err := store.Get(APIKeyItem)
	if errors.Is(err, ErrNotFound) {
		return "", SourceNone, nil
	}
	if err != nil {
		return "", SourceNone, err
	}
	if v = strings.TrimSpace(v); v == "" {
		return "", SourceNone, nil
	}
	return v, SourceKeyring, nil
}

// Mask hides all but the last four characters of a key
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
