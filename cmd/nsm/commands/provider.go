package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nillebco/nsm/internal/config"
	nsmerrors "github.com/nillebco/nsm/internal/errors"
	"github.com/nillebco/nsm/internal/providers"
	"github.com/nillebco/nsm/pkg/secrets"
)

func NewProviderCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage configured providers",
		Long: `Manage the named provider instances nsm can talk to.

A provider binds a backend type (bitwarden, google, passbolt) to its
configuration. One provider is current at a time; all secret commands go
through it.`,
	}

	cmd.AddCommand(
		newProviderAddCommand(ctx),
		newProviderUseCommand(ctx),
		newProviderListCommand(ctx),
		newProviderRemoveCommand(ctx),
		newProviderRemoveAllCommand(ctx),
	)
	return cmd
}

func newProviderAddCommand(ctx *Context) *cobra.Command {
	var (
		backendType    string
		org            string
		projectID      string
		server         string
		privateKeyFile string
		rootFolder     string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a provider",
		Long: `Register a named provider instance. The first provider added becomes
the current one.

Examples:
  nsm provider add work --type bitwarden --org acme
  nsm provider add cloud --type google --project-id my-project
  nsm provider add team --type passbolt --server https://passbolt.example.com \
      --private-key-file ~/keys/passbolt.asc --root-folder acme`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			pc := config.ProviderConfig{
				Type:                   secrets.Backend(backendType),
				Org:                    org,
				ProjectID:              projectID,
				Server:                 server,
				PrivateKeyFile:         privateKeyFile,
				OrganizationRootFolder: rootFolder,
			}

			if err := ctx.Config.AddProvider(name, pc); err != nil {
				return err
			}

			// Validate the entry by building the adapter before the
			// document is saved.
			manager, err := ctx.buildProvider(name, pc)
			if err != nil {
				return err
			}

			if pc.Type == secrets.BackendPassbolt && server != "" && privateKeyFile != "" {
				passphrase, err := ctx.readSecretInput("Passbolt passphrase", "PASSBOLT_PASSPHRASE")
				if err != nil {
					return err
				}
				passbolt, ok := manager.(*providers.Passbolt)
				if !ok {
					return fmt.Errorf("passbolt provider %q built an unexpected adapter", name)
				}
				if err := passbolt.Configure(cmd.Context(), server, privateKeyFile, passphrase); err != nil {
					return backendError(pc.Type, err)
				}
				ctx.Logger.Info("passbolt CLI configured for %s", server)
			}

			if err := ctx.Save(); err != nil {
				return err
			}

			ctx.Logger.Info("provider %q (%s) added", name, pc.Type)
			if ctx.Config.CurrentProvider == name {
				ctx.Logger.Info("provider %q is now current", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backendType, "type", "", "Backend type: bitwarden, google, or passbolt (required)")
	cmd.Flags().StringVar(&org, "org", "", "Bitwarden organization name")
	cmd.Flags().StringVar(&projectID, "project-id", "", "Default GCP project for the google backend")
	cmd.Flags().StringVar(&server, "server", "", "Passbolt server address")
	cmd.Flags().StringVar(&privateKeyFile, "private-key-file", "", "Passbolt user private key file")
	cmd.Flags().StringVar(&rootFolder, "root-folder", "", "Passbolt folder whose children are treated as projects")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newProviderUseCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the current provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Config.UseProvider(args[0]); err != nil {
				return nsmerrors.UserError{
					Message:    fmt.Sprintf("Provider %q is not configured", args[0]),
					Suggestion: "Run 'nsm provider list' to see the configured providers",
					Err:        err,
				}
			}
			if err := ctx.Save(); err != nil {
				return err
			}
			ctx.Logger.Info("current provider is now %q", args[0])
			return nil
		},
	}
}

func newProviderListCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := ctx.Config.ProviderNames()
			if len(names) == 0 {
				fmt.Fprintln(ctx.Out, "No providers configured")
				return nil
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "NAME\tTYPE\tCURRENT\n")
			for _, name := range names {
				pc := ctx.Config.Providers[name]
				current := ""
				if name == ctx.Config.CurrentProvider {
					current = "*"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, pc.Type, current)
			}
			return w.Flush()
		},
	}
}

func newProviderRemoveCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasCurrent := ctx.Config.CurrentProvider == args[0]
			if err := ctx.Config.RemoveProvider(args[0]); err != nil {
				return nsmerrors.UserError{
					Message:    fmt.Sprintf("Provider %q is not configured", args[0]),
					Suggestion: "Run 'nsm provider list' to see the configured providers",
					Err:        err,
				}
			}
			if err := ctx.Save(); err != nil {
				return err
			}
			ctx.Logger.Info("provider %q removed", args[0])
			if wasCurrent {
				ctx.Logger.Warn("no current provider; select one with 'nsm provider use'")
			}
			return nil
		},
	}
}

func newProviderRemoveAllCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-all",
		Short: "Remove every provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count := len(ctx.Config.Providers)
			ctx.Config.RemoveAllProviders()
			if err := ctx.Save(); err != nil {
				return err
			}
			ctx.Logger.Info("removed %d provider(s)", count)
			return nil
		},
	}
}

// buildProvider constructs the adapter for one entry, reusing the
// context's registry when it has one.
func (c *Context) buildProvider(name string, pc config.ProviderConfig) (secrets.Manager, error) {
	registry := c.Registry
	if registry == nil {
		registry = providers.NewRegistry(providers.Deps{Logger: c.Logger})
	}
	return registry.Build(name, pc)
}
