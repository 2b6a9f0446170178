package providers

import (
	"errors"
	"fmt"

	"github.com/nillebco/nsm/pkg/secrets"
)

// ErrNoActiveProvider indicates an operation requiring a live adapter was
// invoked with no current provider configured. Provider-management
// commands remain usable in this state.
var ErrNoActiveProvider = errors.New("no active provider configured")

// InvalidConfigError indicates the selected provider's configuration is
// missing or malformed for its backend type. Raised when the adapter is
// built, never silently swallowed.
type InvalidConfigError struct {
	Name   string
	Type   secrets.Backend
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("provider %q (%s) has invalid configuration: %s", e.Name, e.Type, e.Reason)
}

// UnsupportedError indicates a backend-exclusive command was invoked
// against a provider of a different backend type.
type UnsupportedError struct {
	Command string
	Backend secrets.Backend
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("command %q is not supported for %s providers", e.Command, e.Backend)
}
