package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nillebco/nsm/cmd/nsm/commands"
	"github.com/nillebco/nsm/internal/config"
	"github.com/nillebco/nsm/internal/logging"
	"github.com/nillebco/nsm/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer secure.Purge()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		secure.Purge()
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	ctx := commands.NewContext()

	rootCmd := &cobra.Command{
		Use:   "nsm",
		Short: "Unified front-end for Bitwarden, Google Cloud and Passbolt secrets",
		Long: `nsm manages secrets across Bitwarden Secrets Manager, Google Cloud
Secret Manager, and Passbolt through a single command set. Configure one
or more providers, pick the current one, and the secret commands route
to it.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			ctx.ConfigPath = path
			ctx.Config = cfg
			ctx.Logger = logging.New(debug, noColor)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default ~/"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewProviderCommand(ctx),
		commands.NewSecretCommand(ctx),
		commands.NewProjectsCommand(ctx),
		commands.NewOrganizationsCommand(ctx),
		commands.NewTokenCommand(ctx),
		commands.NewFoldersCommand(ctx),
	)

	return rootCmd.Execute()
}
