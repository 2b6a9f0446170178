package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nillebco/nsm/internal/providers"
	"github.com/nillebco/nsm/pkg/secrets"
)

// folderCreator is the capability behind 'folders create'; only the
// passbolt adapter implements it.
type folderCreator interface {
	CreateFolder(ctx context.Context, name, parentRef string) (string, error)
	EnsureFolder(ctx context.Context, name, parentRef string) (string, error)
}

func NewFoldersCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Manage Passbolt folders",
	}
	cmd.AddCommand(newFoldersCreateCommand(ctx))
	return cmd
}

func newFoldersCreateCommand(ctx *Context) *cobra.Command {
	var (
		parent string
		ensure bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Long: `Create a Passbolt folder, optionally under a parent folder given by
name or identifier. Prints the folder's identifier. With --ensure, an
existing folder with the same name is reused instead of duplicated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}
			if m.Backend() != secrets.BackendPassbolt {
				return &providers.UnsupportedError{Command: "folders create", Backend: m.Backend()}
			}
			creator, ok := m.(folderCreator)
			if !ok {
				return fmt.Errorf("provider does not support folder management")
			}

			create := creator.CreateFolder
			if ensure {
				create = creator.EnsureFolder
			}
			id, err := create(cmd.Context(), args[0], parent)
			if err != nil {
				return backendError(m.Backend(), err)
			}
			fmt.Fprintln(ctx.Out, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent folder name or identifier")
	cmd.Flags().BoolVar(&ensure, "ensure", false, "Reuse an existing folder with the same name")
	return cmd
}
