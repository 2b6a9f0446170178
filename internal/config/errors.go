package config

import (
	"fmt"

	"github.com/nillebco/nsm/pkg/secrets"
)

// CorruptError indicates the configuration file exists but cannot be
// parsed as the expected document. Fatal: the user must fix or delete the
// file.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("configuration %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates a named provider entry does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("provider %q is not configured", e.Name)
}

// DuplicateSingletonError indicates an attempt to add a second instance
// of a singleton backend type.
type DuplicateSingletonError struct {
	Type     secrets.Backend
	Existing string
}

func (e *DuplicateSingletonError) Error() string {
	return fmt.Sprintf("a %s provider already exists (%q); only one instance of this type may be configured", e.Type, e.Existing)
}
