package providers

import (
	"context"

	"github.com/google/uuid"

	"github.com/nillebco/nsm/pkg/secrets"
)

// ResolveProjectRef turns a user-supplied project reference into a
// backend project identifier. References that already look like an
// identifier pass through unchanged; anything else is matched against the
// backend's project list by exact name, first match wins (backends do not
// guarantee unique project names, so resolution is best-effort).
//
// Whether a reference "looks like an identifier" is decided by the
// adapter when it implements secrets.ProjectRefClassifier; otherwise a
// strict UUID parse is used. A reference that resolves to nothing yields
// a ProjectNotFoundError — it is never downgraded to "no filter".
func ResolveProjectRef(ctx context.Context, m secrets.Manager, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	if looksLikeProjectID(m, ref) {
		return ref, nil
	}

	projects, err := m.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range projects {
		if p.Name == ref {
			return p.ID, nil
		}
	}
	return "", secrets.ProjectNotFoundError{Name: ref}
}

func looksLikeProjectID(m secrets.Manager, ref string) bool {
	if classifier, ok := m.(secrets.ProjectRefClassifier); ok {
		return classifier.IsProjectID(ref)
	}
	return IsUUID(ref)
}

// IsUUID reports whether s parses as a canonical RFC 4122 UUID. The
// hyphen-separated canonical form is required; bare 32-digit hex is
// rejected since it is indistinguishable from an unlucky project name.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
