package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/pkg/exec"
	"github.com/nillebco/nsm/pkg/secrets"
)

// Passbolt adapts a Passbolt server through the passbolt CLI (go-passbolt-cli).
// Passbolt has no project hierarchy of its own, so folders stand in:
// top-level folders act as organizations, and the children of the
// configured organization root folder act as projects.
type Passbolt struct {
	rootFolder string
	executor   exec.CommandExecutor
	logger     *logging.Logger
}

// NewPassbolt creates the adapter. rootFolder names the folder whose
// children are exposed as projects; empty means all folders qualify.
func NewPassbolt(rootFolder string, deps Deps) *Passbolt {
	deps = deps.withDefaults()
	return &Passbolt{
		rootFolder: rootFolder,
		executor:   deps.Executor,
		logger:     deps.Logger,
	}
}

// passboltFolder is the CLI's folder list entry.
type passboltFolder struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FolderParentID string `json:"folder_parent_id"`
}

// passboltResource is the CLI's resource list entry. The password is
// absent from listings; it only appears on a direct get.
type passboltResource struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	URI          string `json:"uri"`
	Password     string `json:"password"`
	Description  string `json:"description"`
	FolderParent string `json:"folder_parent_id"`
	CreatedAt    string `json:"created_timestamp"`
	ModifiedAt   string `json:"modified_timestamp"`
}

// Backend implements secrets.Manager.
func (p *Passbolt) Backend() secrets.Backend {
	return secrets.BackendPassbolt
}

// IsProjectID implements secrets.ProjectRefClassifier; Passbolt folder
// identifiers are UUIDs.
func (p *Passbolt) IsProjectID(ref string) bool {
	return IsUUID(ref)
}

func (p *Passbolt) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	if err := p.executor.LookPath("passbolt"); err != nil {
		return nil, secrets.OpError(secrets.BackendPassbolt, op, err)
	}
	stdout, stderr, err := p.executor.Execute(ctx, "passbolt", args...)
	if err != nil {
		return nil, secrets.OpError(secrets.BackendPassbolt, op,
			fmt.Errorf("passbolt %s: %w: %s", args[0], err, string(stderr)))
	}
	return stdout, nil
}

// Configure writes the CLI's connection settings: server address, the
// user's private GPG key, and the passphrase unlocking it. Run once when
// the provider is added; the CLI persists the settings itself.
func (p *Passbolt) Configure(ctx context.Context, server, privateKeyFile, passphrase string) error {
	if err := p.executor.LookPath("passbolt"); err != nil {
		return secrets.OpError(secrets.BackendPassbolt, "configure", err)
	}
	_, stderr, err := p.executor.Execute(ctx, "passbolt", "configure",
		"--serverAddress", server,
		"--userPrivateKeyFile", privateKeyFile,
		"--userPassword", passphrase)
	if err != nil {
		detail := logging.Redact(string(stderr), []string{passphrase})
		return secrets.OpError(secrets.BackendPassbolt, "configure",
			fmt.Errorf("passbolt configure: %w: %s", err, detail))
	}
	return nil
}

func (p *Passbolt) listFolders(ctx context.Context) ([]passboltFolder, error) {
	out, err := p.run(ctx, "list folders", "list", "folder", "--json")
	if err != nil {
		return nil, err
	}
	var folders []passboltFolder
	if err := json.Unmarshal(out, &folders); err != nil {
		return nil, secrets.OpError(secrets.BackendPassbolt, "list folders", fmt.Errorf("unexpected passbolt response: %w", err))
	}
	return folders, nil
}

// resolveFolder maps a folder name or identifier to a folder ID,
// searching the whole tree rather than just the project level.
func (p *Passbolt) resolveFolder(ctx context.Context, ref string) (string, error) {
	if IsUUID(ref) {
		return ref, nil
	}
	folders, err := p.listFolders(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range folders {
		if f.Name == ref {
			return f.ID, nil
		}
	}
	return "", secrets.ProjectNotFoundError{Name: ref}
}

func (p *Passbolt) listResources(ctx context.Context, filter string) ([]passboltResource, error) {
	args := []string{"list", "resource", "--json"}
	if filter != "" {
		args = append(args, "--filter", filter)
	}
	out, err := p.run(ctx, "list secrets", args...)
	if err != nil {
		return nil, err
	}
	var resources []passboltResource
	if err := json.Unmarshal(out, &resources); err != nil {
		return nil, secrets.OpError(secrets.BackendPassbolt, "list secrets", fmt.Errorf("unexpected passbolt response: %w", err))
	}
	return resources, nil
}

func (p *Passbolt) findResource(ctx context.Context, name, projectRef string) (*passboltResource, error) {
	filter := fmt.Sprintf("Name == %q", name)
	if projectRef != "" {
		folderID, err := ResolveProjectRef(ctx, p, projectRef)
		if err != nil {
			return nil, err
		}
		filter = fmt.Sprintf("Name == %q && FolderParentID == %q", name, folderID)
	}

	resources, err := p.listResources(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, nil
	}
	return &resources[0], nil
}

// GetSecret implements secrets.Manager. Listings never carry the
// password, so the match is followed by a direct resource get.
func (p *Passbolt) GetSecret(ctx context.Context, name, projectRef string) (string, error) {
	resource, err := p.findResource(ctx, name, projectRef)
	if err != nil {
		return "", err
	}
	if resource == nil {
		return "", secrets.NotFoundError{Backend: secrets.BackendPassbolt, Name: name}
	}

	out, err := p.run(ctx, "get secret", "get", "resource", "--id", resource.ID, "--json")
	if err != nil {
		return "", err
	}
	var full passboltResource
	if err := json.Unmarshal(out, &full); err != nil {
		return "", secrets.OpError(secrets.BackendPassbolt, "get secret", fmt.Errorf("unexpected passbolt response: %w", err))
	}
	return full.Password, nil
}

// StoreSecret implements secrets.Manager. An existing resource with the
// same name is updated; otherwise a new resource is created, placed in
// the folder named by meta.ProjectID when given.
func (p *Passbolt) StoreSecret(ctx context.Context, name, value string, meta secrets.Metadata) error {
	existing, err := p.findResource(ctx, name, meta.ProjectID)
	if err != nil {
		return err
	}

	if existing != nil {
		args := []string{"update", "resource", "--id", existing.ID, "--password", value}
		if meta.Description != "" {
			args = append(args, "--description", meta.Description)
		}
		if meta.URI != "" {
			args = append(args, "--uri", meta.URI)
		}
		if meta.Username != "" {
			args = append(args, "--username", meta.Username)
		}
		_, err := p.run(ctx, "store secret", args...)
		return err
	}

	args := []string{"create", "resource", "--name", name, "--password", value}
	if meta.Description != "" {
		args = append(args, "--description", meta.Description)
	}
	if meta.URI != "" {
		args = append(args, "--uri", meta.URI)
	}
	if meta.Username != "" {
		args = append(args, "--username", meta.Username)
	}
	if meta.ProjectID != "" {
		folderID, err := ResolveProjectRef(ctx, p, meta.ProjectID)
		if err != nil {
			return err
		}
		args = append(args, "--folderId", folderID)
	}
	_, err = p.run(ctx, "store secret", args...)
	return err
}

// ListSecrets implements secrets.Manager.
func (p *Passbolt) ListSecrets(ctx context.Context, projectRef string) ([]secrets.SecretSummary, error) {
	var filter string
	if projectRef != "" {
		folderID, err := ResolveProjectRef(ctx, p, projectRef)
		if err != nil {
			return nil, err
		}
		filter = fmt.Sprintf("FolderParentID == %q", folderID)
	}

	resources, err := p.listResources(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]secrets.SecretSummary, 0, len(resources))
	for _, r := range resources {
		extra := map[string]string{}
		if r.Username != "" {
			extra["username"] = r.Username
		}
		if r.URI != "" {
			extra["uri"] = r.URI
		}
		if r.ModifiedAt != "" {
			extra["modified"] = r.ModifiedAt
		}
		summaries = append(summaries, secrets.SecretSummary{
			Name:      r.Name,
			ID:        r.ID,
			ProjectID: r.FolderParent,
			Extra:     extra,
		})
	}
	return summaries, nil
}

// DeleteSecret implements secrets.Manager.
func (p *Passbolt) DeleteSecret(ctx context.Context, name string) (bool, error) {
	existing, err := p.findResource(ctx, name, "")
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if _, err := p.run(ctx, "delete secret", "delete", "resource", "--id", existing.ID); err != nil {
		return false, err
	}
	return true, nil
}

// ListProjects implements secrets.Manager. Projects are the folders under
// the organization root folder; without one, every folder qualifies.
func (p *Passbolt) ListProjects(ctx context.Context) ([]secrets.Project, error) {
	folders, err := p.listFolders(ctx)
	if err != nil {
		return nil, err
	}

	rootID := ""
	if p.rootFolder != "" {
		for _, f := range folders {
			if f.Name == p.rootFolder || f.ID == p.rootFolder {
				rootID = f.ID
				break
			}
		}
		if rootID == "" {
			return nil, secrets.ProjectNotFoundError{Name: p.rootFolder}
		}
	}

	var projects []secrets.Project
	for _, f := range folders {
		if rootID != "" && f.FolderParentID != rootID {
			continue
		}
		projects = append(projects, secrets.Project{
			Name:           f.Name,
			ID:             f.ID,
			OrganizationID: f.FolderParentID,
		})
	}
	return projects, nil
}

// ListOrganizations implements secrets.Manager. Top-level folders play
// the organization role.
func (p *Passbolt) ListOrganizations(ctx context.Context) ([]secrets.Organization, error) {
	folders, err := p.listFolders(ctx)
	if err != nil {
		return nil, err
	}

	var orgs []secrets.Organization
	for _, f := range folders {
		if f.FolderParentID != "" {
			continue
		}
		orgs = append(orgs, secrets.Organization{ID: f.ID, Name: f.Name})
	}
	return orgs, nil
}

// CreateFolder creates a folder, optionally under a parent folder named
// or identified by parentRef. The parent is resolved against the full
// folder tree, so the organization root itself is a valid parent. Returns
// the new folder's identifier.
func (p *Passbolt) CreateFolder(ctx context.Context, name, parentRef string) (string, error) {
	args := []string{"create", "folder", "--name", name, "--json"}
	if parentRef != "" {
		parentID, err := p.resolveFolder(ctx, parentRef)
		if err != nil {
			return "", err
		}
		args = append(args, "--folderId", parentID)
	}

	out, err := p.run(ctx, "create folder", args...)
	if err != nil {
		return "", err
	}
	var created passboltFolder
	if err := json.Unmarshal(out, &created); err != nil {
		return "", secrets.OpError(secrets.BackendPassbolt, "create folder", fmt.Errorf("unexpected passbolt response: %w", err))
	}
	return created.ID, nil
}

// EnsureFolder returns the identifier of the folder with the given name
// under parentRef, creating it when absent.
func (p *Passbolt) EnsureFolder(ctx context.Context, name, parentRef string) (string, error) {
	folders, err := p.listFolders(ctx)
	if err != nil {
		return "", err
	}

	parentID := ""
	if parentRef != "" {
		parentID, err = p.resolveFolder(ctx, parentRef)
		if err != nil {
			return "", err
		}
	}
	for _, f := range folders {
		if f.Name != name {
			continue
		}
		if parentID == "" || f.FolderParentID == parentID {
			return f.ID, nil
		}
	}
	return p.CreateFolder(ctx, name, parentRef)
}

var (
	_ secrets.Manager              = (*Passbolt)(nil)
	_ secrets.ProjectRefClassifier = (*Passbolt)(nil)
)
