package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/project"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect or edit project metadata",
	}
	cmd.AddCommand(newProjectShowCommand(ctx))
	cmd.AddCommand(newProjectSetCommand(ctx))
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print project metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				p := a.Session.Project()
				ctx.printf("Site: %s\nOrganization: %s\nGroup: %s\n", p.SiteName, p.OrganizationName, p.GroupName)
				return nil
			})
		},
	}
}

func newProjectSetCommand(ctx *commandContext) *cobra.Command {
	var site, org, group string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change site, organization or group name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				p := a.Session.Project()
				info := project.ProjectInfo{
					SiteName:         p.SiteName,
					OrganizationName: p.OrganizationName,
					GroupName:        p.GroupName,
				}
				flags := cmd.Flags()
				if flags.Changed("site") {
					info.SiteName = site
				}
				if flags.Changed("org") {
					info.OrganizationName = org
				}
				if flags.Changed("group") {
					info.GroupName = group
				}
				if err := a.Session.UpdateProject(info); err != nil {
					return err
				}
				ctx.printf("Project updated: %s\n", info.SiteName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "site name")
	cmd.Flags().StringVar(&org, "org", "", "organization name")
	cmd.Flags().StringVar(&group, "group", "", "survey group name")
	return cmd
}
