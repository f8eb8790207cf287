package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/health"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show project, subscription and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				a.Health.Poll(c)
				if err := printStatus(c, ctx, a); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				ctx.printf("Watching storage every %s, press Ctrl-C to stop\n", a.Config.HealthInterval)
				a.Health.Run(c)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling storage usage until interrupted")
	return cmd
}

func printStatus(c context.Context, ctx *commandContext, a *app.App) error {
	id, err := a.Entitlement.DeviceID(c)
	if err != nil {
		return err
	}
	sub, err := a.Entitlement.Status(c)
	if err != nil {
		return err
	}
	p := a.Session.Project()

	rows := [][]string{
		{"Project", p.SiteName},
		{"Organization", p.OrganizationName},
		{"Group", p.GroupName},
		{"Records", fmt.Sprintf("%d", len(p.Records))},
		{"Photos", fmt.Sprintf("%d", p.PhotoCount())},
		{"Autosave", a.Session.State().String()},
		{"Device ID", id},
		{"Subscription", subscriptionLabel(sub.Active, sub.DaysLeft)},
		{"Storage", storageLabel(a.Health)},
	}
	fmt.Fprintln(ctx.out, renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}

func subscriptionLabel(active bool, daysLeft int) string {
	if !active {
		return "inactive"
	}
	return fmt.Sprintf("active, %d days left", daysLeft)
}

func storageLabel(p *health.Poller) string {
	est, ok := p.Latest()
	if !ok {
		return "unknown"
	}
	return est.String()
}
