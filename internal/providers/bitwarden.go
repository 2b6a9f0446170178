package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/pkg/exec"
	"github.com/nillebco/nsm/pkg/secrets"
)

// Bitwarden adapts Bitwarden Secrets Manager through the bws CLI. The
// access token lives in the OS keychain under bws-<org>-<hostname>-<year>
// and is injected into every invocation; it is never logged.
type Bitwarden struct {
	org      string
	executor exec.CommandExecutor
	tokens   TokenStore
	logger   *logging.Logger
}

// NewBitwarden creates the adapter for one organization.
func NewBitwarden(org string, deps Deps) *Bitwarden {
	deps = deps.withDefaults()
	return &Bitwarden{
		org:      org,
		executor: deps.Executor,
		tokens:   deps.Tokens,
		logger:   deps.Logger,
	}
}

// bwsProject is the bws CLI's project list entry.
type bwsProject struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId"`
	CreationDate   string `json:"creationDate"`
	RevisionDate   string `json:"revisionDate"`
}

// bwsSecret is the bws CLI's secret list entry. Value is only consumed by
// GetSecret; listings strip it before crossing the contract boundary.
type bwsSecret struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	ProjectID      string `json:"projectId"`
	Key            string `json:"key"`
	Value          string `json:"value"`
	CreationDate   string `json:"creationDate"`
	RevisionDate   string `json:"revisionDate"`
}

// Backend implements secrets.Manager.
func (b *Bitwarden) Backend() secrets.Backend {
	return secrets.BackendBitwarden
}

// IsProjectID implements secrets.ProjectRefClassifier; bws project
// identifiers are UUIDs.
func (b *Bitwarden) IsProjectID(ref string) bool {
	return IsUUID(ref)
}

// AccessTokenKey returns the keychain entry name holding this
// organization's bws access token.
func (b *Bitwarden) AccessTokenKey() (string, error) {
	return AccessTokenName(b.org)
}

// StoreAccessToken writes the bws access token to the OS keychain.
func (b *Bitwarden) StoreAccessToken(token string) error {
	key, err := b.AccessTokenKey()
	if err != nil {
		return err
	}
	b.logger.Debug("storing access token under keychain entry %s", key)
	return b.tokens.SetToken(key, token)
}

func (b *Bitwarden) accessToken() (string, error) {
	key, err := b.AccessTokenKey()
	if err != nil {
		return "", err
	}
	token, err := b.tokens.GetToken(key)
	if err != nil {
		return "", fmt.Errorf("no access token for organization %q (keychain entry %s): %w", b.org, key, err)
	}
	return token, nil
}

func (b *Bitwarden) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	if err := b.executor.LookPath("bws"); err != nil {
		return nil, secrets.OpError(secrets.BackendBitwarden, op, err)
	}
	token, err := b.accessToken()
	if err != nil {
		return nil, secrets.OpError(secrets.BackendBitwarden, op, err)
	}

	full := append([]string{"--access-token", token}, args...)
	stdout, stderr, err := b.executor.Execute(ctx, "bws", full...)
	if err != nil {
		detail := logging.Redact(string(stderr), []string{token})
		return nil, secrets.OpError(secrets.BackendBitwarden, op, fmt.Errorf("bws %s: %w: %s", args[0], err, detail))
	}
	return stdout, nil
}

func (b *Bitwarden) listProjects(ctx context.Context) ([]bwsProject, error) {
	out, err := b.run(ctx, "list projects", "project", "list")
	if err != nil {
		return nil, err
	}
	var projects []bwsProject
	if err := json.Unmarshal(out, &projects); err != nil {
		return nil, secrets.OpError(secrets.BackendBitwarden, "list projects", fmt.Errorf("unexpected bws response: %w", err))
	}
	return projects, nil
}

func (b *Bitwarden) listSecrets(ctx context.Context, projectRef string) ([]bwsSecret, error) {
	args := []string{"secret", "list"}
	if projectRef != "" {
		projectID, err := ResolveProjectRef(ctx, b, projectRef)
		if err != nil {
			return nil, err
		}
		args = append(args, projectID)
	}

	out, err := b.run(ctx, "list secrets", args...)
	if err != nil {
		return nil, err
	}
	var entries []bwsSecret
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, secrets.OpError(secrets.BackendBitwarden, "list secrets", fmt.Errorf("unexpected bws response: %w", err))
	}
	return entries, nil
}

func (b *Bitwarden) findSecret(ctx context.Context, name string) (*bwsSecret, error) {
	entries, err := b.listSecrets(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Key == name {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// GetSecret implements secrets.Manager. bws has no lookup-by-name, so the
// value comes from the full listing.
func (b *Bitwarden) GetSecret(ctx context.Context, name, projectRef string) (string, error) {
	entries, err := b.listSecrets(ctx, projectRef)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Key == name {
			return entry.Value, nil
		}
	}
	return "", secrets.NotFoundError{Backend: secrets.BackendBitwarden, Name: name}
}

// StoreSecret implements secrets.Manager. An existing secret with the
// same key is edited in place; otherwise a new secret is created in the
// project named by meta.ProjectID. Description maps to the bws note.
func (b *Bitwarden) StoreSecret(ctx context.Context, name, value string, meta secrets.Metadata) error {
	existing, err := b.findSecret(ctx, name)
	if err != nil {
		return err
	}

	if existing != nil {
		args := []string{"secret", "edit", existing.ID, "--value", value}
		if meta.Description != "" {
			args = append(args, "--note", meta.Description)
		}
		_, err := b.run(ctx, "store secret", args...)
		return err
	}

	if meta.ProjectID == "" {
		return secrets.OpError(secrets.BackendBitwarden, "store secret",
			fmt.Errorf("bitwarden requires a project for new secrets; pass --project"))
	}
	projectID, err := ResolveProjectRef(ctx, b, meta.ProjectID)
	if err != nil {
		return err
	}

	args := []string{"secret", "create", name, value, projectID}
	if meta.Description != "" {
		args = append(args, "--note", meta.Description)
	}
	_, err = b.run(ctx, "store secret", args...)
	return err
}

// ListSecrets implements secrets.Manager.
func (b *Bitwarden) ListSecrets(ctx context.Context, projectRef string) ([]secrets.SecretSummary, error) {
	entries, err := b.listSecrets(ctx, projectRef)
	if err != nil {
		return nil, err
	}

	summaries := make([]secrets.SecretSummary, 0, len(entries))
	for _, entry := range entries {
		extra := map[string]string{
			"organizationId": entry.OrganizationID,
		}
		if entry.RevisionDate != "" {
			extra["revisionDate"] = entry.RevisionDate
		}
		summaries = append(summaries, secrets.SecretSummary{
			Name:      entry.Key,
			ID:        entry.ID,
			ProjectID: entry.ProjectID,
			Extra:     extra,
		})
	}
	return summaries, nil
}

// DeleteSecret implements secrets.Manager. Returns false when no secret
// has the given key; a rejected deletion of an existing secret surfaces
// as an OperationError.
func (b *Bitwarden) DeleteSecret(ctx context.Context, name string) (bool, error) {
	existing, err := b.findSecret(ctx, name)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if _, err := b.run(ctx, "delete secret", "secret", "delete", existing.ID); err != nil {
		return false, err
	}
	return true, nil
}

// ListProjects implements secrets.Manager.
func (b *Bitwarden) ListProjects(ctx context.Context) ([]secrets.Project, error) {
	entries, err := b.listProjects(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]secrets.Project, 0, len(entries))
	for _, entry := range entries {
		projects = append(projects, secrets.Project{
			Name:           entry.Name,
			ID:             entry.ID,
			OrganizationID: entry.OrganizationID,
		})
	}
	return projects, nil
}

// ListOrganizations implements secrets.Manager. bws has no organization
// listing, so the set is derived from the organizations that own the
// visible projects.
func (b *Bitwarden) ListOrganizations(ctx context.Context) ([]secrets.Organization, error) {
	entries, err := b.listProjects(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var orgs []secrets.Organization
	for _, entry := range entries {
		if entry.OrganizationID == "" || seen[entry.OrganizationID] {
			continue
		}
		seen[entry.OrganizationID] = true
		orgs = append(orgs, secrets.Organization{ID: entry.OrganizationID, Name: entry.OrganizationID})
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs, nil
}

var (
	_ secrets.Manager              = (*Bitwarden)(nil)
	_ secrets.ProjectRefClassifier = (*Bitwarden)(nil)
)
