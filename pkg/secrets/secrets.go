package secrets

import (
	"context"
	"errors"
	"fmt"
)

// Backend identifies one of the supported secret-storage systems.
type Backend string

const (
	// BackendBitwarden is Bitwarden Secrets Manager, driven through the
	// bws CLI with an access token held in the OS keychain.
	BackendBitwarden Backend = "bitwarden"

	// BackendGoogle is Google Cloud Secret Manager, driven through the
	// GCP SDK with ambient application-default credentials. Only one
	// provider of this type may be configured at a time.
	BackendGoogle Backend = "google"

	// BackendPassbolt is a Passbolt server, driven through the passbolt
	// CLI. Folders double as organizations and projects.
	BackendPassbolt Backend = "passbolt"
)

// Backends returns the supported backend types in stable order.
func Backends() []Backend {
	return []Backend{BackendBitwarden, BackendGoogle, BackendPassbolt}
}

// Valid reports whether b names a supported backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendBitwarden, BackendGoogle, BackendPassbolt:
		return true
	}
	return false
}

// Organization is a top-level grouping within a backend. Read-only;
// produced by backend queries and never persisted locally.
type Organization struct {
	ID   string
	Name string
}

// Project is a mid-level grouping within a backend, used as the unit of
// secret filtering. OrganizationID may be empty for backends that have no
// parent linkage for the queried project.
type Project struct {
	Name           string
	ID             string
	OrganizationID string
}

// SecretSummary describes a secret without exposing its value.
// Name, ID, and ProjectID are populated by every backend; anything else a
// backend reports (timestamps, folder linkage, labels) lands in Extra so
// the command layer can print whatever the active backend supplies.
type SecretSummary struct {
	Name      string
	ID        string
	ProjectID string
	Extra     map[string]string
}

// Metadata is the common metadata contract for StoreSecret. Backends map
// these fields onto whatever they natively support:
//
//   - bitwarden: Description becomes the secret note, ProjectID selects
//     the project; URI, Username, and Labels are ignored.
//   - google: Labels become secret labels; Description joins them under
//     the "description" key; ProjectID, URI, Username are ignored.
//   - passbolt: Description, URI, and Username map to resource fields,
//     ProjectID to the destination folder; Labels are ignored.
type Metadata struct {
	Description string
	URI         string
	Username    string
	ProjectID   string
	Labels      map[string]string
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Description == "" && m.URI == "" && m.Username == "" &&
		m.ProjectID == "" && len(m.Labels) == 0
}

// Manager is the capability set every backend adapter must implement.
//
// projectRef parameters accept either a human project name or a
// backend-native project identifier; resolution happens inside the
// adapter (usually by delegating to the project resolver). An empty
// projectRef means unfiltered.
type Manager interface {
	// Backend returns the concrete backend type behind this adapter.
	Backend() Backend

	// GetSecret retrieves a secret value by name. Returns a NotFoundError
	// when no secret with that name exists.
	GetSecret(ctx context.Context, name, projectRef string) (string, error)

	// StoreSecret creates or updates a secret. Metadata fields the
	// backend cannot represent are dropped silently.
	StoreSecret(ctx context.Context, name, value string, meta Metadata) error

	// ListSecrets returns summaries of the available secrets, optionally
	// filtered to one project.
	ListSecrets(ctx context.Context, projectRef string) ([]SecretSummary, error)

	// DeleteSecret removes a secret by name. Returns false without error
	// when the secret does not exist; a rejected deletion of an existing
	// secret is an OperationError.
	DeleteSecret(ctx context.Context, name string) (bool, error)

	// ListProjects returns the projects visible to the configured
	// credentials.
	ListProjects(ctx context.Context) ([]Project, error)

	// ListOrganizations returns the top-level namespaces visible to the
	// configured credentials.
	ListOrganizations(ctx context.Context) ([]Organization, error)
}

// ProjectRefClassifier is an optional capability a Manager may implement
// to declare its project identifier format. The project resolver consults
// it before deciding whether a reference needs a name lookup; adapters
// that do not implement it get a strict UUID check by default.
type ProjectRefClassifier interface {
	IsProjectID(ref string) bool
}

// NotFoundError indicates that a named secret does not exist in the
// backend.
type NotFoundError struct {
	Backend Backend
	Name    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("secret %q not found in %s", e.Name, e.Backend)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// ProjectNotFoundError indicates that a project reference could not be
// resolved to a backend project identifier. It always propagates to the
// caller; resolution failures are never treated as "no filter".
type ProjectNotFoundError struct {
	Name string
}

func (e ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project %q not found", e.Name)
}

// OperationError wraps any backend failure (process exit, network error,
// malformed response) behind the contract boundary.
type OperationError struct {
	Backend Backend
	Op      string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// OpError builds an OperationError. Adapters use it to normalize
// backend-specific failures before they cross the contract boundary.
func OpError(b Backend, op string, err error) error {
	return &OperationError{Backend: b, Op: op, Err: err}
}
