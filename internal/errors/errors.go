// Package errors holds the user-facing error types the command layer
// prints. Domain error types (config, providers, secrets contract) live
// next to their packages; this package only adds presentation context.
package errors

import (
	"strings"
)

// UserError is an error with enough context for a human to act on it.
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}
	if e.Suggestion != "" {
		parts = append(parts, "\n  Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// BackendSuggestion returns a remediation hint for common failures of
// the given backend, or an empty string when none applies.
func BackendSuggestion(backend string, err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	switch backend {
	case "bitwarden":
		if strings.Contains(msg, "executable file not found") {
			return "Install the Bitwarden Secrets Manager CLI: https://bitwarden.com/help/secrets-manager-cli/"
		}
		if strings.Contains(msg, "access token") || strings.Contains(msg, "401") {
			return "Store a valid access token with 'nsm token set'"
		}
	case "google":
		if strings.Contains(msg, "could not find default credentials") {
			return "Authenticate with 'gcloud auth application-default login'"
		}
		if strings.Contains(msg, "PermissionDenied") {
			return "Check IAM permissions for Secret Manager on the configured project"
		}
	case "passbolt":
		if strings.Contains(msg, "executable file not found") {
			return "Install go-passbolt-cli: https://github.com/passbolt/go-passbolt-cli"
		}
		if strings.Contains(msg, "passphrase") || strings.Contains(msg, "decrypt") {
			return "Re-run 'nsm provider add' to reconfigure the passbolt CLI, or set PASSBOLT_PASSPHRASE"
		}
	}

	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return "Unable to connect. Check your network and provider configuration"
	}
	return ""
}
