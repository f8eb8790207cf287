package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/entitlement"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Unflag photos whose stored image is gone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				n, err := a.Session.Repair(c)
				if err != nil {
					return err
				}
				ctx.printf("Repaired %d photo(s)\n", n)
				return nil
			})
		},
	}
}

func newGCCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Delete stored images no photo refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				n, err := a.Session.CollectGarbage(c)
				if err != nil {
					return err
				}
				ctx.printf("Removed %d orphaned image(s)\n", n)
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the project and all photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes every record and photo, pass --yes to confirm")
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				if err := a.Session.Reset(c); err != nil {
					return err
				}
				ctx.printf("Project reset: %s\n", a.Session.Project().SiteName)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate CODE",
		Short: "Redeem a subscription activation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				res, err := a.Entitlement.Activate(c, args[0])
				if err != nil {
					return err
				}
				if res != entitlement.Success {
					return errors.New("activation failed: " + string(res))
				}
				st, err := a.Entitlement.Status(c)
				if err != nil {
					return err
				}
				ctx.printf("Subscription active until %s\n", st.Expiry.Format("2006-01-02"))
				return nil
			})
		},
	}
}
