package providers

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/pkg/secrets"
)

// googleProjectIDPattern matches GCP project identifiers: 6 to 30
// characters, lowercase letters, digits and hyphens, starting with a
// letter and not ending with a hyphen.
var googleProjectIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)

// Google adapts Google Cloud Secret Manager through the GCP SDK, using
// application-default credentials. Clients are created on first use so
// that building the adapter never touches the network.
type Google struct {
	projectID string
	logger    *logging.Logger

	mu  sync.Mutex
	sm  *secretmanager.Client
	crm *cloudresourcemanager.Service
}

// NewGoogle creates the adapter for one GCP project. An empty projectID
// falls back to GOOGLE_CLOUD_PROJECT; with neither set the adapter cannot
// address any secret, so construction fails.
func NewGoogle(projectID string, deps Deps) (*Google, error) {
	deps = deps.withDefaults()
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required (or set GOOGLE_CLOUD_PROJECT)")
	}
	return &Google{projectID: projectID, logger: deps.Logger}, nil
}

// Backend implements secrets.Manager.
func (g *Google) Backend() secrets.Backend {
	return secrets.BackendGoogle
}

// IsProjectID implements secrets.ProjectRefClassifier using the GCP
// project identifier grammar.
func (g *Google) IsProjectID(ref string) bool {
	return googleProjectIDPattern.MatchString(ref)
}

func (g *Google) secretClient(ctx context.Context) (*secretmanager.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sm == nil {
		client, err := secretmanager.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("secret manager client: %w", err)
		}
		g.sm = client
	}
	return g.sm, nil
}

func (g *Google) resourceClient(ctx context.Context) (*cloudresourcemanager.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.crm == nil {
		service, err := cloudresourcemanager.NewService(ctx)
		if err != nil {
			return nil, fmt.Errorf("resource manager client: %w", err)
		}
		g.crm = service
	}
	return g.crm, nil
}

// Close releases the underlying gRPC connection if one was opened.
func (g *Google) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sm == nil {
		return nil
	}
	err := g.sm.Close()
	g.sm = nil
	return err
}

// targetProject picks the project addressed by a request: the configured
// project unless the caller filtered to another one.
func (g *Google) targetProject(ctx context.Context, projectRef string) (string, error) {
	if projectRef == "" {
		return g.projectID, nil
	}
	return ResolveProjectRef(ctx, g, projectRef)
}

// GetSecret implements secrets.Manager, reading the latest version.
func (g *Google) GetSecret(ctx context.Context, name, projectRef string) (string, error) {
	project, err := g.targetProject(ctx, projectRef)
	if err != nil {
		return "", err
	}
	client, err := g.secretClient(ctx)
	if err != nil {
		return "", secrets.OpError(secrets.BackendGoogle, "get secret", err)
	}

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", secrets.NotFoundError{Backend: secrets.BackendGoogle, Name: name}
		}
		return "", secrets.OpError(secrets.BackendGoogle, "get secret", err)
	}
	return string(resp.GetPayload().GetData()), nil
}

// StoreSecret implements secrets.Manager. The secret container is created
// on first store and reused afterwards; every store adds a new version.
// Labels (with Description folded in under "description") are applied via
// a masked update so unrelated labels survive.
func (g *Google) StoreSecret(ctx context.Context, name, value string, meta secrets.Metadata) error {
	client, err := g.secretClient(ctx)
	if err != nil {
		return secrets.OpError(secrets.BackendGoogle, "store secret", err)
	}

	parent := "projects/" + g.projectID
	secretName := parent + "/secrets/" + name

	_, err = client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   parent,
		SecretId: name,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return secrets.OpError(secrets.BackendGoogle, "store secret", err)
	}

	_, err = client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secretName,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		return secrets.OpError(secrets.BackendGoogle, "store secret", err)
	}

	labels := make(map[string]string, len(meta.Labels)+1)
	for k, v := range meta.Labels {
		labels[k] = v
	}
	if meta.Description != "" {
		labels["description"] = meta.Description
	}
	if len(labels) == 0 {
		return nil
	}

	_, err = client.UpdateSecret(ctx, &secretmanagerpb.UpdateSecretRequest{
		Secret: &secretmanagerpb.Secret{
			Name:   secretName,
			Labels: labels,
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"labels"}},
	})
	if err != nil {
		return secrets.OpError(secrets.BackendGoogle, "store secret", err)
	}
	return nil
}

// ListSecrets implements secrets.Manager.
func (g *Google) ListSecrets(ctx context.Context, projectRef string) ([]secrets.SecretSummary, error) {
	project, err := g.targetProject(ctx, projectRef)
	if err != nil {
		return nil, err
	}
	client, err := g.secretClient(ctx)
	if err != nil {
		return nil, secrets.OpError(secrets.BackendGoogle, "list secrets", err)
	}

	it := client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: "projects/" + project,
	})
	var summaries []secrets.SecretSummary
	for {
		s, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, secrets.OpError(secrets.BackendGoogle, "list secrets", err)
		}

		extra := map[string]string{}
		for k, v := range s.GetLabels() {
			extra[k] = v
		}
		if created := s.GetCreateTime(); created != nil {
			extra["createTime"] = created.AsTime().UTC().Format("2006-01-02T15:04:05Z")
		}
		summaries = append(summaries, secrets.SecretSummary{
			Name:      path.Base(s.GetName()),
			ID:        s.GetName(),
			ProjectID: project,
			Extra:     extra,
		})
	}
	return summaries, nil
}

// DeleteSecret implements secrets.Manager. Deleting an absent secret
// reports false rather than an error.
func (g *Google) DeleteSecret(ctx context.Context, name string) (bool, error) {
	client, err := g.secretClient(ctx)
	if err != nil {
		return false, secrets.OpError(secrets.BackendGoogle, "delete secret", err)
	}

	err = client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s", g.projectID, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, secrets.OpError(secrets.BackendGoogle, "delete secret", err)
	}
	return true, nil
}

// ListProjects implements secrets.Manager, returning the
// organization-parented projects visible to the active credentials.
func (g *Google) ListProjects(ctx context.Context) ([]secrets.Project, error) {
	service, err := g.resourceClient(ctx)
	if err != nil {
		return nil, secrets.OpError(secrets.BackendGoogle, "list projects", err)
	}

	var projects []secrets.Project
	call := service.Projects.List().Filter("parent.type:organization").Context(ctx)
	err = call.Pages(ctx, func(page *cloudresourcemanager.ListProjectsResponse) error {
		for _, p := range page.Projects {
			var orgID string
			if p.Parent != nil {
				orgID = p.Parent.Id
			}
			projects = append(projects, secrets.Project{
				Name:           p.Name,
				ID:             p.ProjectId,
				OrganizationID: orgID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, secrets.OpError(secrets.BackendGoogle, "list projects", err)
	}
	return projects, nil
}

// ListOrganizations implements secrets.Manager.
func (g *Google) ListOrganizations(ctx context.Context) ([]secrets.Organization, error) {
	service, err := g.resourceClient(ctx)
	if err != nil {
		return nil, secrets.OpError(secrets.BackendGoogle, "list organizations", err)
	}

	var orgs []secrets.Organization
	call := service.Organizations.Search(&cloudresourcemanager.SearchOrganizationsRequest{})
	err = call.Pages(ctx, func(page *cloudresourcemanager.SearchOrganizationsResponse) error {
		for _, o := range page.Organizations {
			orgs = append(orgs, secrets.Organization{
				ID:   path.Base(o.Name),
				Name: o.DisplayName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, secrets.OpError(secrets.BackendGoogle, "list organizations", err)
	}
	return orgs, nil
}

var (
	_ secrets.Manager              = (*Google)(nil)
	_ secrets.ProjectRefClassifier = (*Google)(nil)
)
