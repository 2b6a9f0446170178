// Package providers builds and backs the live backend adapters behind
// the secrets.Manager contract: Bitwarden Secrets Manager (bws CLI),
// Google Cloud Secret Manager (SDK), and Passbolt (passbolt CLI).
package providers

import (
	"github.com/nillebco/nsm/internal/config"
	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/pkg/exec"
	"github.com/nillebco/nsm/pkg/secrets"
)

// Deps carries the collaborators shared by every adapter. Tests swap in
// the mock executor and the in-memory token store.
type Deps struct {
	Executor exec.CommandExecutor
	Tokens   TokenStore
	Logger   *logging.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Executor == nil {
		d.Executor = exec.Default()
	}
	if d.Tokens == nil {
		d.Tokens = &KeyringTokenStore{}
	}
	if d.Logger == nil {
		d.Logger = logging.New(false, false)
	}
	return d
}

// Factory builds an adapter from one named provider configuration.
type Factory func(name string, pc config.ProviderConfig, deps Deps) (secrets.Manager, error)

// Registry maps backend types to adapter factories.
type Registry struct {
	factories map[secrets.Backend]Factory
	deps      Deps
}

// NewRegistry creates a registry with the built-in backends registered.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		factories: make(map[secrets.Backend]Factory),
		deps:      deps.withDefaults(),
	}
	r.Register(secrets.BackendBitwarden, newBitwardenFactory)
	r.Register(secrets.BackendGoogle, newGoogleFactory)
	r.Register(secrets.BackendPassbolt, newPassboltFactory)
	return r
}

// Register adds or replaces the factory for a backend type. This is the
// seam for wiring a new backend.
func (r *Registry) Register(b secrets.Backend, f Factory) {
	r.factories[b] = f
}

// Build constructs the adapter for one named provider entry.
func (r *Registry) Build(name string, pc config.ProviderConfig) (secrets.Manager, error) {
	factory, ok := r.factories[pc.Type]
	if !ok {
		return nil, &InvalidConfigError{Name: name, Type: pc.Type, Reason: "unknown backend type"}
	}
	return factory(name, pc, r.deps)
}

// ForCurrent constructs the adapter for the configuration's current
// provider. Returns (nil, nil) when no provider is configured; callers
// treat that as the uninitialized state, not an error. Adapters are cheap
// to construct and hold no state beyond their configuration, so this is
// re-invoked whenever the current provider changes.
func (r *Registry) ForCurrent(cfg *config.Config) (secrets.Manager, error) {
	name, pc, ok := cfg.Current()
	if !ok {
		return nil, nil
	}
	return r.Build(name, pc)
}

func newBitwardenFactory(name string, pc config.ProviderConfig, deps Deps) (secrets.Manager, error) {
	if pc.Org == "" {
		return nil, &InvalidConfigError{Name: name, Type: pc.Type, Reason: "org is required"}
	}
	return NewBitwarden(pc.Org, deps), nil
}

func newGoogleFactory(name string, pc config.ProviderConfig, deps Deps) (secrets.Manager, error) {
	manager, err := NewGoogle(pc.ProjectID, deps)
	if err != nil {
		return nil, &InvalidConfigError{Name: name, Type: pc.Type, Reason: err.Error()}
	}
	return manager, nil
}

func newPassboltFactory(_ string, pc config.ProviderConfig, deps Deps) (secrets.Manager, error) {
	return NewPassbolt(pc.OrganizationRootFolder, deps), nil
}
