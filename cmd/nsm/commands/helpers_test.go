package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/nillebco/nsm/internal/config"
	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/internal/providers"
	"github.com/nillebco/nsm/pkg/exec"
	"github.com/nillebco/nsm/pkg/secrets"
)

// newTestContext builds a Context around a temp config file, with output
// captured and a registry backed by the mock executor and the in-memory
// token store.
func newTestContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	ctx := &Context{
		ConfigPath: filepath.Join(t.TempDir(), config.DefaultFileName),
		Config:     config.New(),
		Logger:     logging.NewWithWriter(&bytes.Buffer{}, false, true),
		Registry: providers.NewRegistry(providers.Deps{
			Executor: exec.NewMock(),
			Tokens:   &providers.MemoryTokenStore{},
		}),
		In:  bytes.NewReader(nil),
		Out: out,
	}
	return ctx, out
}

// useFake wires a fake manager as the current provider. The fake is
// registered under its backend type so Context.Manager returns it.
func useFake(t *testing.T, ctx *Context, fake *secrets.Fake) {
	t.Helper()
	backend := fake.Backend()
	ctx.Registry.Register(backend, func(string, config.ProviderConfig, providers.Deps) (secrets.Manager, error) {
		return fake, nil
	})
	require.NoError(t, ctx.Config.AddProvider("test", config.ProviderConfig{Type: backend, Org: "acme"}))
}

// runCommand executes args against the command and returns the error.
func runCommand(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}
