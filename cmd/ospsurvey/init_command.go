package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the local store and the default project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := a.Entitlement.DeviceID(c)
				if err != nil {
					return err
				}
				p := a.Session.Project()
				ctx.printf("Data directory: %s\n", a.Config.DataDir)
				ctx.printf("Device ID: %s\n", id)
				ctx.printf("Project: %s (%d records)\n", p.SiteName, len(p.Records))
				return nil
			})
		},
	}
}
