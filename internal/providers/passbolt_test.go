package providers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nillebco/nsm/pkg/exec"
	"github.com/nillebco/nsm/pkg/secrets"
)

const passboltFoldersJSON = `[
  {"id": "f0000000-0000-0000-0000-000000000001", "name": "nillebco", "folder_parent_id": ""},
  {"id": "f0000000-0000-0000-0000-000000000002", "name": "website", "folder_parent_id": "f0000000-0000-0000-0000-000000000001"},
  {"id": "f0000000-0000-0000-0000-000000000003", "name": "backend", "folder_parent_id": "f0000000-0000-0000-0000-000000000001"},
  {"id": "f0000000-0000-0000-0000-000000000004", "name": "personal", "folder_parent_id": ""}
]`

const passboltResourcesJSON = `[
  {"id": "r0000000-0000-0000-0000-000000000001", "name": "db-password", "username": "admin",
   "uri": "https://db.example.com", "folder_parent_id": "f0000000-0000-0000-0000-000000000002",
   "modified_timestamp": "2026-02-03T04:05:06Z"}
]`

func newTestPassbolt(rootFolder string) (*Passbolt, *exec.MockCommandExecutor) {
	mock := exec.NewMock()
	return NewPassbolt(rootFolder, Deps{Executor: mock}), mock
}

func TestPassboltListOrganizations(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)

	orgs, err := p.ListOrganizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "nillebco", orgs[0].Name)
	assert.Equal(t, "personal", orgs[1].Name)
}

func TestPassboltListProjectsUnderRootFolder(t *testing.T) {
	p, mock := newTestPassbolt("nillebco")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)

	projects, err := p.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "website", projects[0].Name)
	assert.Equal(t, "backend", projects[1].Name)
	assert.Equal(t, "f0000000-0000-0000-0000-000000000001", projects[0].OrganizationID)
}

func TestPassboltListProjectsWithoutRootFolder(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)

	projects, err := p.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 4)
}

func TestPassboltListProjectsUnknownRootFolder(t *testing.T) {
	p, mock := newTestPassbolt("nonexistent")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)

	_, err := p.ListProjects(context.Background())
	var notFound secrets.ProjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nonexistent", notFound.Name)
}

func TestPassboltListSecrets(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.Respond("passbolt list resource --json", passboltResourcesJSON)

	summaries, err := p.ListSecrets(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "db-password", summaries[0].Name)
	assert.Equal(t, "f0000000-0000-0000-0000-000000000002", summaries[0].ProjectID)
	assert.Equal(t, "admin", summaries[0].Extra["username"])
}

func TestPassboltListSecretsFilteredByFolderName(t *testing.T) {
	p, mock := newTestPassbolt("nillebco")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)
	filter := fmt.Sprintf("FolderParentID == %q", "f0000000-0000-0000-0000-000000000002")
	mock.Respond("passbolt list resource --json --filter "+filter, passboltResourcesJSON)

	summaries, err := p.ListSecrets(context.Background(), "website")
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestPassboltGetSecret(t *testing.T) {
	p, mock := newTestPassbolt("")
	filter := fmt.Sprintf("Name == %q", "db-password")
	mock.Respond("passbolt list resource --json --filter "+filter, passboltResourcesJSON)
	mock.Respond("passbolt get resource --id r0000000-0000-0000-0000-000000000001 --json",
		`{"id": "r0000000-0000-0000-0000-000000000001", "name": "db-password", "password": "hunter2"}`)

	value, err := p.GetSecret(context.Background(), "db-password", "")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestPassboltGetSecretNotFound(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.Respond("passbolt list resource --json", `[]`)

	_, err := p.GetSecret(context.Background(), "missing", "")
	assert.True(t, secrets.IsNotFound(err))
}

func TestPassboltStoreSecretCreates(t *testing.T) {
	p, mock := newTestPassbolt("")
	filter := fmt.Sprintf("Name == %q", "new-secret")
	mock.Respond("passbolt list resource --json --filter "+filter, `[]`)

	err := p.StoreSecret(context.Background(), "new-secret", "v", secrets.Metadata{
		Description: "test secret",
		Username:    "svc",
	})
	require.NoError(t, err)

	last := mock.Calls[len(mock.Calls)-1]
	assert.Equal(t, []string{"create", "resource", "--name", "new-secret", "--password", "v",
		"--description", "test secret", "--username", "svc"}, last.Args)
}

func TestPassboltStoreSecretUpdatesExisting(t *testing.T) {
	p, mock := newTestPassbolt("")
	filter := fmt.Sprintf("Name == %q", "db-password")
	mock.Respond("passbolt list resource --json --filter "+filter, passboltResourcesJSON)

	err := p.StoreSecret(context.Background(), "db-password", "rotated", secrets.Metadata{})
	require.NoError(t, err)

	last := mock.Calls[len(mock.Calls)-1]
	assert.Equal(t, []string{"update", "resource", "--id", "r0000000-0000-0000-0000-000000000001",
		"--password", "rotated"}, last.Args)
}

func TestPassboltDeleteSecretAbsent(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.Respond("passbolt list resource --json", `[]`)

	deleted, err := p.DeleteSecret(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPassboltDeleteSecretPresent(t *testing.T) {
	p, mock := newTestPassbolt("")
	filter := fmt.Sprintf("Name == %q", "db-password")
	mock.Respond("passbolt list resource --json --filter "+filter, passboltResourcesJSON)

	deleted, err := p.DeleteSecret(context.Background(), "db-password")
	require.NoError(t, err)
	assert.True(t, deleted)

	last := mock.Calls[len(mock.Calls)-1]
	assert.Equal(t, []string{"delete", "resource", "--id", "r0000000-0000-0000-0000-000000000001"}, last.Args)
}

func TestPassboltCreateFolder(t *testing.T) {
	p, mock := newTestPassbolt("nillebco")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)
	mock.Respond("passbolt create folder --name newproject --json --folderId f0000000-0000-0000-0000-000000000001",
		`{"id": "f0000000-0000-0000-0000-000000000009", "name": "newproject"}`)

	id, err := p.CreateFolder(context.Background(), "newproject", "nillebco")
	require.NoError(t, err)
	assert.Equal(t, "f0000000-0000-0000-0000-000000000009", id)
}

func TestPassboltEnsureFolderReturnsExisting(t *testing.T) {
	p, mock := newTestPassbolt("nillebco")
	mock.Strict = true
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)

	id, err := p.EnsureFolder(context.Background(), "website", "nillebco")
	require.NoError(t, err)
	assert.Equal(t, "f0000000-0000-0000-0000-000000000002", id)
}

func TestPassboltEnsureFolderCreatesWhenAbsent(t *testing.T) {
	p, mock := newTestPassbolt("nillebco")
	mock.Respond("passbolt list folder --json", passboltFoldersJSON)
	mock.Respond("passbolt create folder --name deploy --json --folderId f0000000-0000-0000-0000-000000000001",
		`{"id": "f0000000-0000-0000-0000-00000000000c", "name": "deploy"}`)

	id, err := p.EnsureFolder(context.Background(), "deploy", "nillebco")
	require.NoError(t, err)
	assert.Equal(t, "f0000000-0000-0000-0000-00000000000c", id)
}

func TestPassboltConfigure(t *testing.T) {
	p, mock := newTestPassbolt("")

	err := p.Configure(context.Background(), "https://passbolt.example.com", "/keys/private.asc", "passphrase-value")
	require.NoError(t, err)

	last := mock.Calls[len(mock.Calls)-1]
	assert.Equal(t, []string{"configure",
		"--serverAddress", "https://passbolt.example.com",
		"--userPrivateKeyFile", "/keys/private.asc",
		"--userPassword", "passphrase-value"}, last.Args)
}

func TestPassboltConfigureRedactsPassphrase(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.Fail("passbolt configure", "gpg: bad passphrase passphrase-value", assert.AnError)

	err := p.Configure(context.Background(), "https://passbolt.example.com", "/keys/private.asc", "passphrase-value")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "passphrase-value")
}

func TestPassboltMissingBinary(t *testing.T) {
	p, mock := newTestPassbolt("")
	mock.MarkMissing("passbolt")

	_, err := p.ListProjects(context.Background())
	var op *secrets.OperationError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, secrets.BackendPassbolt, op.Backend)
}
