package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nillebco/nsm/internal/config"
	"github.com/nillebco/nsm/pkg/exec"
	"github.com/nillebco/nsm/pkg/secrets"
)

func testDeps() Deps {
	return Deps{
		Executor: exec.NewMock(),
		Tokens:   &MemoryTokenStore{},
	}
}

func TestRegistryBuildsBitwarden(t *testing.T) {
	r := NewRegistry(testDeps())

	m, err := r.Build("work", config.ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"})
	require.NoError(t, err)
	assert.Equal(t, secrets.BackendBitwarden, m.Backend())
}

func TestRegistryBitwardenRequiresOrg(t *testing.T) {
	r := NewRegistry(testDeps())

	_, err := r.Build("work", config.ProviderConfig{Type: secrets.BackendBitwarden})
	var invalid *InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "work", invalid.Name)
	assert.Contains(t, invalid.Reason, "org")
}

func TestRegistryBuildsGoogle(t *testing.T) {
	r := NewRegistry(testDeps())

	m, err := r.Build("cloud", config.ProviderConfig{Type: secrets.BackendGoogle, ProjectID: "my-project"})
	require.NoError(t, err)
	assert.Equal(t, secrets.BackendGoogle, m.Backend())
}

func TestRegistryGoogleRequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	r := NewRegistry(testDeps())

	_, err := r.Build("cloud", config.ProviderConfig{Type: secrets.BackendGoogle})
	var invalid *InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, secrets.BackendGoogle, invalid.Type)
}

func TestRegistryGoogleProjectFromEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")
	r := NewRegistry(testDeps())

	m, err := r.Build("cloud", config.ProviderConfig{Type: secrets.BackendGoogle})
	require.NoError(t, err)
	assert.Equal(t, secrets.BackendGoogle, m.Backend())
}

func TestRegistryBuildsPassbolt(t *testing.T) {
	r := NewRegistry(testDeps())

	m, err := r.Build("team", config.ProviderConfig{Type: secrets.BackendPassbolt, OrganizationRootFolder: "nillebco"})
	require.NoError(t, err)
	assert.Equal(t, secrets.BackendPassbolt, m.Backend())
}

func TestRegistryUnknownBackend(t *testing.T) {
	r := NewRegistry(testDeps())

	_, err := r.Build("odd", config.ProviderConfig{Type: secrets.Backend("vault")})
	var invalid *InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "unknown backend")
}

func TestRegistryCustomFactory(t *testing.T) {
	r := NewRegistry(testDeps())
	fake := &secrets.Fake{BackendType: secrets.Backend("custom")}
	r.Register(secrets.Backend("custom"), func(string, config.ProviderConfig, Deps) (secrets.Manager, error) {
		return fake, nil
	})

	m, err := r.Build("x", config.ProviderConfig{Type: secrets.Backend("custom")})
	require.NoError(t, err)
	assert.Same(t, fake, m.(*secrets.Fake))
}

func TestForCurrentWithoutProvider(t *testing.T) {
	r := NewRegistry(testDeps())

	m, err := r.ForCurrent(config.New())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestForCurrentBuildsActiveProvider(t *testing.T) {
	cfg := config.New()
	require.NoError(t, cfg.AddProvider("work", config.ProviderConfig{Type: secrets.BackendBitwarden, Org: "acme"}))

	r := NewRegistry(testDeps())
	m, err := r.ForCurrent(cfg)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, secrets.BackendBitwarden, m.Backend())
}
