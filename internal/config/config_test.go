package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nillebco/nsm/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), DefaultFileName)
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(tempConfigPath(t))
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
	assert.Empty(t, cfg.CurrentProvider)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	cfg := New()
	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	require.NoError(t, cfg.AddProvider("cloud", ProviderConfig{Type: secrets.BackendGoogle, ProjectID: "acme-prod"}))
	require.NoError(t, cfg.AddProvider("team", ProviderConfig{
		Type:                   secrets.BackendPassbolt,
		Server:                 "https://safe.example.net",
		PrivateKeyFile:         "/home/u/keys/passbolt.asc",
		OrganizationRootFolder: "6a9f1b2c-0000-4000-8000-1234567890ab",
	}))

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRestrictsPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := tempConfigPath(t)

	require.NoError(t, Save(New(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := tempConfigPath(t)
	require.NoError(t, Save(New(), path))

	cfg := New()
	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "work", loaded.CurrentProvider)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadCorruptJSON(t *testing.T) {
	path := tempConfigPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, path, corrupt.Path)
}

func TestLoadSchemaViolation(t *testing.T) {
	path := tempConfigPath(t)
	// Entry is missing its required "type".
	doc := `{"providers": {"work": {"org": "acme"}}, "current_provider": "work"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := Load(path)
	var corrupt *CorruptError
	assert.ErrorAs(t, err, &corrupt)
}

func TestLoadToleratesUnknownFields(t *testing.T) {
	path := tempConfigPath(t)
	doc := `{
  "providers": {
    "work": {"type": "bitwarden", "org": "acme", "future_field": "ignored"}
  },
  "current_provider": "work"
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, secrets.BackendBitwarden, cfg.Providers["work"].Type)
	assert.Equal(t, "acme", cfg.Providers["work"].Org)
}

func TestAddProviderFirstBecomesCurrent(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	assert.Equal(t, "work", cfg.CurrentProvider)

	require.NoError(t, cfg.AddProvider("other", ProviderConfig{Type: secrets.BackendPassbolt}))
	assert.Equal(t, "work", cfg.CurrentProvider, "adding a second provider must not steal current")
}

func TestAddProviderRejectsUnknownType(t *testing.T) {
	cfg := New()
	err := cfg.AddProvider("bad", ProviderConfig{Type: "aws"})
	require.Error(t, err)
	assert.Empty(t, cfg.Providers)
}

func TestSingletonGoogleProvider(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.AddProvider("gcp", ProviderConfig{Type: secrets.BackendGoogle}))

	err := cfg.AddProvider("gcp2", ProviderConfig{Type: secrets.BackendGoogle, ProjectID: "other"})
	var dup *DuplicateSingletonError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, secrets.BackendGoogle, dup.Type)
	assert.Equal(t, "gcp", dup.Existing)
	assert.Len(t, cfg.Providers, 1, "rejected add must not mutate the map")

	// Upserting the same entry is allowed.
	require.NoError(t, cfg.AddProvider("gcp", ProviderConfig{Type: secrets.BackendGoogle, ProjectID: "acme-prod"}))
	assert.Equal(t, "acme-prod", cfg.Providers["gcp"].ProjectID)
}

func TestUseProviderUnknownLeavesConfigUnmodified(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	before := *cfg

	err := cfg.UseProvider("nonexistent")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nonexistent", notFound.Name)
	assert.Equal(t, before.CurrentProvider, cfg.CurrentProvider)
	assert.Equal(t, before.Providers, cfg.Providers)
}

func TestRemoveProviderClearsCurrentOnlyForCurrent(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	require.NoError(t, cfg.AddProvider("team", ProviderConfig{Type: secrets.BackendPassbolt}))

	require.NoError(t, cfg.RemoveProvider("team"))
	assert.Equal(t, "work", cfg.CurrentProvider, "removing a non-current provider keeps current")

	require.NoError(t, cfg.RemoveProvider("work"))
	assert.Empty(t, cfg.CurrentProvider, "removing the current provider clears current")

	err := cfg.RemoveProvider("gone")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProviderLifecycle(t *testing.T) {
	cfg := New()

	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	assert.Equal(t, "work", cfg.CurrentProvider)

	err := cfg.UseProvider("nonexistent")
	require.Error(t, err)
	assert.Equal(t, "work", cfg.CurrentProvider)

	cfg.RemoveAllProviders()
	assert.Empty(t, cfg.Providers)
	assert.Empty(t, cfg.CurrentProvider)
}

func TestCurrentToleratesDanglingReference(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	cfg.CurrentProvider = "hand-edited-away"

	_, _, ok := cfg.Current()
	assert.False(t, ok)
}

func TestCurrent(t *testing.T) {
	cfg := New()
	_, _, ok := cfg.Current()
	assert.False(t, ok)

	require.NoError(t, cfg.AddProvider("work", ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))
	name, pc, ok := cfg.Current()
	require.True(t, ok)
	assert.Equal(t, "work", name)
	assert.Equal(t, "acme", pc.Org)
}
