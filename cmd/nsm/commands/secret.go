package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nillebco/nsm/internal/secure"
	"github.com/nillebco/nsm/pkg/secrets"
)

func NewSecretCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Read and write secrets on the current provider",
	}

	cmd.AddCommand(
		newSecretGetCommand(ctx),
		newSecretSetCommand(ctx),
		newSecretDeleteCommand(ctx),
		newSecretListCommand(ctx),
	)
	return cmd
}

func newSecretGetCommand(ctx *Context) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a secret value",
		Long: `Retrieve one secret and print its raw value to stdout, suitable for
command substitution:

  export DB_PASSWORD=$(nsm secret get DB_PASSWORD)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}

			value, err := m.GetSecret(cmd.Context(), args[0], project)
			if err != nil {
				return backendError(m.Backend(), err)
			}
			fmt.Fprint(ctx.Out, value)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name or identifier to search in")
	return cmd
}

func newSecretSetCommand(ctx *Context) *cobra.Command {
	var (
		project     string
		description string
		uri         string
		username    string
	)

	cmd := &cobra.Command{
		Use:   "set <name> [value]",
		Short: "Create or update a secret",
		Long: `Store a secret on the current provider. The value comes from the
second argument, from piped stdin, or from a hidden prompt:

  nsm secret set DB_PASSWORD hunter2
  openssl rand -hex 32 | nsm secret set API_KEY
  nsm secret set DB_PASSWORD   # prompts without echo`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}

			var raw string
			if len(args) == 2 {
				raw = args[1]
			} else {
				raw, err = ctx.readSecretInput(fmt.Sprintf("Value for %s", args[0]), "")
				if err != nil {
					return err
				}
			}
			if raw == "" {
				return fmt.Errorf("refusing to store an empty value for %q", args[0])
			}

			buf := secure.NewBufferFromString(raw)
			defer buf.Destroy()

			meta := secrets.Metadata{
				Description: description,
				URI:         uri,
				Username:    username,
				ProjectID:   project,
			}
			err = buf.WithValue(func(value string) error {
				return m.StoreSecret(cmd.Context(), args[0], value, meta)
			})
			if err != nil {
				return backendError(m.Backend(), err)
			}
			ctx.Logger.Info("secret %q stored", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name or identifier to store into")
	cmd.Flags().StringVar(&description, "description", "", "Secret description")
	cmd.Flags().StringVar(&uri, "uri", "", "Associated URI (passbolt)")
	cmd.Flags().StringVar(&username, "username", "", "Associated username (passbolt)")
	return cmd
}

func newSecretDeleteCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}

			deleted, err := m.DeleteSecret(cmd.Context(), args[0])
			if err != nil {
				return backendError(m.Backend(), err)
			}
			if !deleted {
				ctx.Logger.Warn("secret %q not found; nothing deleted", args[0])
				return nil
			}
			ctx.Logger.Info("secret %q deleted", args[0])
			return nil
		},
	}
}

func newSecretListCommand(ctx *Context) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secrets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}

			summaries, err := m.ListSecrets(cmd.Context(), project)
			if err != nil {
				return backendError(m.Backend(), err)
			}
			printSecretSummaries(ctx.Out, summaries)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project name or identifier to filter by")
	return cmd
}

func printSecretSummaries(w io.Writer, summaries []secrets.SecretSummary) {
	for _, s := range summaries {
		if s.ProjectID != "" {
			fmt.Fprintf(w, "%s (%s) (projectId: %s)\n", s.Name, s.ID, s.ProjectID)
		} else {
			fmt.Fprintf(w, "%s (%s)\n", s.Name, s.ID)
		}
	}
}
