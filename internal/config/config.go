// Package config persists the set of named provider instances and which
// one is current. The whole state is a single JSON document, loaded once
// at process start and saved back after every successful mutation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nillebco/nsm/pkg/secrets"
)

// DefaultFileName is the per-user configuration document.
const DefaultFileName = ".nsm.json"

// ProviderConfig is one named instance of backend configuration. Which
// fields are populated depends on Type; unknown fields in the document
// are tolerated so newer versions can extend the schema.
type ProviderConfig struct {
	Type secrets.Backend `json:"type"`

	// Org names the Bitwarden organization; it is part of the keychain
	// entry name that stores the bws access token.
	Org string `json:"org,omitempty"`

	// ProjectID is the default GCP project for the google backend.
	ProjectID string `json:"project_id,omitempty"`

	// Server, PrivateKeyFile and OrganizationRootFolder configure the
	// passbolt backend.
	Server                 string `json:"server,omitempty"`
	PrivateKeyFile         string `json:"private_key_file,omitempty"`
	OrganizationRootFolder string `json:"organization_root_folder,omitempty"`
}

// Config is the process-wide provider state. At most one instance is live
// per process; it is owned by the command context and passed by
// reference, never accessed as a global.
type Config struct {
	Providers       map[string]ProviderConfig `json:"providers"`
	CurrentProvider string                    `json:"current_provider,omitempty"`
}

// New returns an empty configuration.
func New() *Config {
	return &Config{Providers: make(map[string]ProviderConfig)}
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Load reads the configuration document at path. A missing file yields an
// empty configuration; a present but unparseable or schema-violating file
// yields a CorruptError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	if err := validateDocument(data); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return &cfg, nil
}

// Save writes the configuration document. The write goes to a temporary
// file in the same directory followed by a rename, so a crash mid-write
// never leaves a truncated document, and the result is restricted to
// owner read/write because the document holds identifiers that gate
// access to secrets.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary configuration file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict configuration permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace configuration %s: %w", path, err)
	}
	return nil
}

// AddProvider upserts a named provider entry. The first provider added
// becomes current. Adding a second instance of a singleton backend type
// fails with DuplicateSingletonError; the google backend binds to ambient
// credentials, so two named instances would be indistinguishable.
func (c *Config) AddProvider(name string, pc ProviderConfig) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if !pc.Type.Valid() {
		return fmt.Errorf("unknown provider type %q (valid types: %v)", pc.Type, secrets.Backends())
	}

	if pc.Type == secrets.BackendGoogle {
		for existing, entry := range c.Providers {
			if entry.Type == secrets.BackendGoogle && existing != name {
				return &DuplicateSingletonError{Type: pc.Type, Existing: existing}
			}
		}
	}

	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	first := len(c.Providers) == 0
	c.Providers[name] = pc
	if first {
		c.CurrentProvider = name
	}
	return nil
}

// UseProvider switches the current provider. The configuration is left
// unmodified when name is unknown.
func (c *Config) UseProvider(name string) error {
	if _, ok := c.Providers[name]; !ok {
		return &NotFoundError{Name: name}
	}
	c.CurrentProvider = name
	return nil
}

// RemoveProvider deletes a named entry, clearing the current provider
// when it is the one removed.
func (c *Config) RemoveProvider(name string) error {
	if _, ok := c.Providers[name]; !ok {
		return &NotFoundError{Name: name}
	}
	delete(c.Providers, name)
	if c.CurrentProvider == name {
		c.CurrentProvider = ""
	}
	return nil
}

// RemoveAllProviders empties the provider map and clears the current
// provider.
func (c *Config) RemoveAllProviders() {
	c.Providers = make(map[string]ProviderConfig)
	c.CurrentProvider = ""
}

// Current returns the current provider's name and configuration, or
// ok=false when no provider is active.
func (c *Config) Current() (name string, pc ProviderConfig, ok bool) {
	if c.CurrentProvider == "" {
		return "", ProviderConfig{}, false
	}
	pc, ok = c.Providers[c.CurrentProvider]
	if !ok {
		// A document edited by hand can point at a removed entry; treat
		// it as uninitialized rather than failing every command.
		return "", ProviderConfig{}, false
	}
	return c.CurrentProvider, pc, true
}

// ProviderNames returns the configured provider names, unsorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	return names
}
