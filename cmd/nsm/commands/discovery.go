package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewProjectsCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects on the current provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}

			projects, err := m.ListProjects(cmd.Context())
			if err != nil {
				return backendError(m.Backend(), err)
			}
			for _, p := range projects {
				if p.OrganizationID != "" {
					fmt.Fprintf(ctx.Out, "%s (%s) (orgId: %s)\n", p.Name, p.ID, p.OrganizationID)
				} else {
					fmt.Fprintf(ctx.Out, "%s (%s)\n", p.Name, p.ID)
				}
			}
			return nil
		},
	}
}

func NewOrganizationsCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "organizations",
		Short: "List organizations on the current provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.Manager()
			if err != nil {
				return err
			}

			orgs, err := m.ListOrganizations(cmd.Context())
			if err != nil {
				return backendError(m.Backend(), err)
			}
			for _, o := range orgs {
				if o.Name != "" && o.Name != o.ID {
					fmt.Fprintf(ctx.Out, "%s (%s)\n", o.Name, o.ID)
				} else {
					fmt.Fprintln(ctx.Out, o.ID)
				}
			}
			return nil
		},
	}
}
