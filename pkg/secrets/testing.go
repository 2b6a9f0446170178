package secrets

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Fake is an in-memory Manager used by resolver and command tests.
// The zero value is usable; configure the exported fields before use.
type Fake struct {
	mu sync.Mutex

	// BackendType is reported by Backend(). Defaults to BackendBitwarden.
	BackendType Backend

	// Values maps secret names to their values.
	Values map[string]string

	// Summaries is returned by ListSecrets, filtered by project when a
	// projectRef is supplied.
	Summaries []SecretSummary

	// ProjectList and OrganizationList back the discovery operations.
	ProjectList      []Project
	OrganizationList []Organization

	// Err, when set, is returned by every operation.
	Err error

	// Stored records StoreSecret calls by name.
	Stored map[string]StoredSecret

	// Deleted records DeleteSecret calls.
	Deleted []string

	// ProjectIDFunc, when set, makes the fake implement the
	// ProjectRefClassifier capability.
	ProjectIDFunc func(ref string) bool
}

// StoredSecret captures one StoreSecret invocation.
type StoredSecret struct {
	Value string
	Meta  Metadata
}

// Backend implements Manager.
func (f *Fake) Backend() Backend {
	if f.BackendType == "" {
		return BackendBitwarden
	}
	return f.BackendType
}

// GetSecret implements Manager.
func (f *Fake) GetSecret(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	value, ok := f.Values[name]
	if !ok {
		return "", NotFoundError{Backend: f.Backend(), Name: name}
	}
	return value, nil
}

// StoreSecret implements Manager.
func (f *Fake) StoreSecret(_ context.Context, name, value string, meta Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.Values == nil {
		f.Values = make(map[string]string)
	}
	if f.Stored == nil {
		f.Stored = make(map[string]StoredSecret)
	}
	f.Values[name] = value
	f.Stored[name] = StoredSecret{Value: value, Meta: meta}
	return nil
}

// ListSecrets implements Manager.
func (f *Fake) ListSecrets(_ context.Context, projectRef string) ([]SecretSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if projectRef == "" {
		return append([]SecretSummary(nil), f.Summaries...), nil
	}
	var filtered []SecretSummary
	for _, s := range f.Summaries {
		if s.ProjectID == projectRef {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// DeleteSecret implements Manager. Returns false when the name is absent.
func (f *Fake) DeleteSecret(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	if _, ok := f.Values[name]; !ok {
		return false, nil
	}
	delete(f.Values, name)
	f.Deleted = append(f.Deleted, name)
	return true, nil
}

// ListProjects implements Manager.
func (f *Fake) ListProjects(_ context.Context) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]Project(nil), f.ProjectList...), nil
}

// ListOrganizations implements Manager.
func (f *Fake) ListOrganizations(_ context.Context) ([]Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]Organization(nil), f.OrganizationList...), nil
}

// IsProjectID implements ProjectRefClassifier. Without a ProjectIDFunc
// it applies the default canonical-UUID rule.
func (f *Fake) IsProjectID(ref string) bool {
	if f.ProjectIDFunc == nil {
		if len(ref) != 36 {
			return false
		}
		_, err := uuid.Parse(ref)
		return err == nil
	}
	return f.ProjectIDFunc(ref)
}

// SecretNames returns the names currently held by the fake, sorted.
func (f *Fake) SecretNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.Values))
	for name := range f.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ Manager = (*Fake)(nil)
