// Package keys stores the Gemini API key in keys.json under the config dir.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manash/picfour/internal/config"
)

// DefaultProvider is the only generation service the tool currently talks to.
const DefaultProvider = "gemini"

// EnvVar is the environment fallback for the API key.
const EnvVar = "GEMINI_API_KEY"

type Store struct {
	configDir string
}

type KeyEntry struct {
	Key string `json:"key"`
}

type Keys map[string]KeyEntry

func NewStore() (*Store, error) {
	configDir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return &Store{configDir: configDir}, nil
}

func (s *Store) Path() string {
	return filepath.Join(s.configDir, "keys.json")
}

func (s *Store) load() (Keys, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(Keys), nil
		}
		return nil, err
	}

	var keys Keys
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse keys.json: %w", err)
	}
	return keys, nil
}

func (s *Store) save(keys Keys) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}

	// Owner read/write only
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write keys.json: %w", err)
	}
	return nil
}

func (s *Store) Set(provider, key string) error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	keys[provider] = KeyEntry{Key: key}
	return s.save(keys)
}

// Get returns an empty string when no key is stored; that is not an error.
func (s *Store) Get(provider string) (string, error) {
	keys, err := s.load()
	if err != nil {
		return "", err
	}
	return keys[provider].Key, nil
}

func (s *Store) Delete(provider string) error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := keys[provider]; !ok {
		return fmt.Errorf("no key found for %s", provider)
	}

	delete(keys, provider)
	return s.save(keys)
}

func (s *Store) List() ([]string, error) {
	keys, err := s.load()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(keys))
	for provider := range keys {
		providers = append(providers, provider)
	}
	return providers, nil
}

// MaskKey returns a masked version of the key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// GetAPIKey resolves the API key with flag > stored key > environment
// priority, and names the source for diagnostics.
func GetAPIKey(explicitKey string, getenv func(string) string) (string, string, error) {
	if explicitKey != "" {
		return explicitKey, "command-line flag", nil
	}

	store, err := NewStore()
	if err == nil {
		storedKey, err := store.Get(DefaultProvider)
		if err == nil && storedKey != "" {
			return storedKey, "stored key (keys.json)", nil
		}
	}

	if envKey := getenv(EnvVar); envKey != "" {
		return envKey, fmt.Sprintf("environment variable (%s)", EnvVar), nil
	}

	return "", "", fmt.Errorf("API key required: run 'picfour keys set' or set %s", EnvVar)
}
