package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/project"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "record",
		Aliases: []string{"pole"},
		Short:   "Manage survey records",
	}
	cmd.AddCommand(newRecordAddCommand(ctx))
	cmd.AddCommand(newRecordListCommand(ctx))
	cmd.AddCommand(newRecordEditCommand(ctx))
	cmd.AddCommand(newRecordDeleteCommand(ctx))
	return cmd
}

func newRecordAddCommand(ctx *commandContext) *cobra.Command {
	var (
		alt   float64
		name  string
		notes string
	)

	cmd := &cobra.Command{
		Use:   "add LAT LNG",
		Short: "Add a survey record at the given coordinates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lng, err := parseCoordinates(args[0], args[1])
			if err != nil {
				return err
			}
			var altitude *float64
			if cmd.Flags().Changed("alt") {
				altitude = &alt
			}

			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := a.Session.AddRecord(lat, lng, altitude)
				if err != nil {
					return err
				}
				var patch project.RecordPatch
				if cmd.Flags().Changed("name") {
					patch.Name = &name
				}
				if cmd.Flags().Changed("notes") {
					patch.Notes = &notes
				}
				if patch.Name != nil || patch.Notes != nil {
					if err := a.Session.UpdateRecord(rec.ID, patch); err != nil {
						return err
					}
					if patch.Name != nil {
						rec.Name = name
					}
				}
				ctx.printf("Added %s (%s)\n", rec.Name, rec.ID)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&alt, "alt", 0, "altitude in metres")
	cmd.Flags().StringVar(&name, "name", "", "record name, defaults to the next POLE-NNN")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newRecordListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List survey records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				p := a.Session.Project()
				if len(p.Records) == 0 {
					ctx.printf("No survey records\n")
					return nil
				}
				rows := make([][]string, 0, len(p.Records))
				for _, r := range p.Records {
					rows = append(rows, []string{
						shortID(r.ID),
						r.Name,
						strconv.FormatFloat(r.Latitude, 'f', 6, 64),
						strconv.FormatFloat(r.Longitude, 'f', 6, 64),
						strconv.Itoa(len(r.Photos)),
						r.Notes,
					})
				}
				headers := []string{"ID", "Name", "Lat", "Lng", "Photos", "Notes"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
				fmt.Fprintln(ctx.out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func newRecordEditCommand(ctx *commandContext) *cobra.Command {
	var (
		name     string
		notes    string
		lat, lng float64
		alt      float64
	)

	cmd := &cobra.Command{
		Use:   "edit RECORD",
		Short: "Change name, notes or position of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch project.RecordPatch
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("lat") {
				patch.Latitude = &lat
			}
			if flags.Changed("lng") {
				patch.Longitude = &lng
			}
			if flags.Changed("alt") {
				patch.Altitude = &alt
			}

			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := findRecord(a.Session.Project(), args[0])
				if err != nil {
					return err
				}
				if err := a.Session.UpdateRecord(rec.ID, patch); err != nil {
					return err
				}
				ctx.printf("Updated %s\n", rec.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "record name")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&alt, "alt", 0, "altitude in metres")
	return cmd
}

func newRecordDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete RECORD...",
		Aliases: []string{"rm"},
		Short:   "Delete records and their photos",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				p := a.Session.Project()
				ids := make([]string, 0, len(args))
				for _, ref := range args {
					rec, err := findRecord(p, ref)
					if err != nil {
						return err
					}
					ids = append(ids, rec.ID)
				}
				n, err := a.Session.DeleteRecords(c, ids...)
				if err != nil {
					return err
				}
				ctx.printf("Deleted %d record(s)\n", n)
				return nil
			})
		},
	}
}

func parseCoordinates(latArg, lngArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latArg), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngArg), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	return lat, lng, nil
}
