// Package commands implements the nsm command tree. Each command group
// lives in its own file with a NewXxxCommand constructor taking the
// shared Context.
package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nillebco/nsm/internal/config"
	nsmerrors "github.com/nillebco/nsm/internal/errors"
	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/internal/providers"
	"github.com/nillebco/nsm/pkg/secrets"
)

// Context carries the state shared by every command: the loaded
// configuration, where to save it back, the logger, and the provider
// registry. main populates it once flags are parsed; tests construct it
// directly around a temp config file and fake adapters.
type Context struct {
	ConfigPath string
	Config     *config.Config
	Logger     *logging.Logger
	Registry   *providers.Registry

	// In is the source for interactive input; os.Stdin in production.
	In io.Reader

	// Out is the destination for command output; os.Stdout in production.
	Out io.Writer
}

// NewContext returns a Context with production defaults and an empty
// configuration. main replaces Config and ConfigPath after flag parsing.
func NewContext() *Context {
	return &Context{
		Config: config.New(),
		Logger: logging.New(false, false),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Save persists the configuration back to its file.
func (c *Context) Save() error {
	return config.Save(c.Config, c.ConfigPath)
}

// Manager builds the adapter for the current provider. With no provider
// configured it returns a UserError wrapping ErrNoActiveProvider, so
// every secret-touching command fails the same way in the uninitialized
// state while provider management stays available.
func (c *Context) Manager() (secrets.Manager, error) {
	registry := c.Registry
	if registry == nil {
		registry = providers.NewRegistry(providers.Deps{Logger: c.Logger})
	}
	m, err := registry.ForCurrent(c.Config)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nsmerrors.UserError{
			Message:    "No provider configured",
			Suggestion: "Add one with 'nsm provider add <name> --type <bitwarden|google|passbolt>'",
			Err:        providers.ErrNoActiveProvider,
		}
	}
	return m, nil
}

// backendError attaches a remediation suggestion to a backend failure
// when one is known for the error's shape.
func backendError(backend secrets.Backend, err error) error {
	if err == nil {
		return nil
	}
	if suggestion := nsmerrors.BackendSuggestion(string(backend), err); suggestion != "" {
		return nsmerrors.UserError{Message: err.Error(), Suggestion: suggestion, Err: err}
	}
	return err
}

// readSecretInput obtains a secret value without echoing it: from the
// named environment variable when set, from a masked terminal prompt when
// stdin is a terminal, or by reading one line from In (piped input).
func (c *Context) readSecretInput(prompt, envVar string) (string, error) {
	if envVar != "" {
		if value := os.Getenv(envVar); value != "" {
			return value, nil
		}
	}

	if f, ok := c.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(c.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
