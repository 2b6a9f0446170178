package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nillebco/nsm/internal/providers"
	"github.com/nillebco/nsm/pkg/secrets"
)

// accessTokenStorer is the capability behind 'token set'; only the
// bitwarden adapter implements it.
type accessTokenStorer interface {
	StoreAccessToken(token string) error
	AccessTokenKey() (string, error)
}

func NewTokenCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage backend access tokens",
	}
	cmd.AddCommand(newTokenSetCommand(ctx))
	return cmd
}

func newTokenSetCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Store the Bitwarden access token in the OS keychain",
		Long: `Store the bws machine access token in the OS keychain, under an entry
derived from the organization, this machine's hostname, and the current
year. The token comes from the argument, BWS_ACCESS_TOKEN, or a hidden
prompt. Only meaningful for bitwarden providers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}
			if m.Backend() != secrets.BackendBitwarden {
				return &providers.UnsupportedError{Command: "token set", Backend: m.Backend()}
			}
			storer, ok := m.(accessTokenStorer)
			if !ok {
				return fmt.Errorf("provider does not support access token storage")
			}

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				token, err = ctx.readSecretInput("Bitwarden access token", "BWS_ACCESS_TOKEN")
				if err != nil {
					return err
				}
			}
			if token == "" {
				return fmt.Errorf("no access token provided")
			}

			if err := storer.StoreAccessToken(token); err != nil {
				return backendError(m.Backend(), err)
			}
			key, err := storer.AccessTokenKey()
			if err != nil {
				return err
			}
			ctx.Logger.Info("access token stored under keychain entry %s", key)
			return nil
		},
	}
}
