// Package secrets defines the contract between the nsm command layer and
// the backend secret-storage adapters.
//
// nsm fronts several external secret managers (Bitwarden Secrets Manager,
// Google Cloud Secret Manager, Passbolt) and normalizes their vocabulary
// into secrets, projects, and organizations. Every backend adapter
// implements the Manager interface; the command layer never branches on
// the concrete backend except for backend-exclusive commands, which check
// Manager.Backend().
//
// # Entities
//
// Organization is a top-level namespace (a Bitwarden organization, a GCP
// organization, a Passbolt root folder). Project is a mid-level grouping
// used to filter secrets (a Bitwarden project, a GCP project, a Passbolt
// folder). SecretSummary describes a secret without its value; backends
// expose different metadata, so the summary carries an open Extra bag in
// addition to the fields every backend supplies.
//
// # Error handling
//
// Adapters must not leak backend SDK or process errors across this
// boundary. A missing secret is a NotFoundError, a failed project lookup
// is a ProjectNotFoundError, and any other backend failure is wrapped in
// an OperationError carrying the operation name and the underlying cause.
package secrets
