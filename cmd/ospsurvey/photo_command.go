package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/models"
)

func newPhotoCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Manage photos of a survey record",
	}
	cmd.AddCommand(newPhotoAddCommand(ctx))
	cmd.AddCommand(newPhotoListCommand(ctx))
	cmd.AddCommand(newPhotoReviewCommand(ctx))
	cmd.AddCommand(newPhotoGetCommand(ctx))
	cmd.AddCommand(newPhotoDeleteCommand(ctx))
	return cmd
}

func newPhotoAddCommand(ctx *commandContext) *cobra.Command {
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "add RECORD FILE...",
		Short: "Attach image files to a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var loc *models.Location
			flags := cmd.Flags()
			if flags.Changed("lat") != flags.Changed("lng") {
				return fmt.Errorf("--lat and --lng must be given together")
			}
			if flags.Changed("lat") {
				loc = &models.Location{Latitude: lat, Longitude: lng}
			}

			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := findRecord(a.Session.Project(), args[0])
				if err != nil {
					return err
				}
				for _, path := range args[1:] {
					raw, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					ph, err := a.Session.AddPhoto(c, rec.ID, raw, loc)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					ctx.printf("Added photo %s to %s: %s\n", shortID(ph.ID), rec.Name, ph.Verification)
				}
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "capture latitude, overrides EXIF")
	cmd.Flags().Float64Var(&lng, "lng", 0, "capture longitude, overrides EXIF")
	return cmd
}

func newPhotoListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list RECORD",
		Short: "List the photos of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := findRecord(a.Session.Project(), args[0])
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(rec.Photos))
				for i, ph := range rec.Photos {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						shortID(ph.ID),
						ph.CapturedAt.UTC().Format("2006-01-02 15:04:05"),
						string(ph.Status),
						ph.Verification,
						ph.Remarks,
					})
				}
				headers := []string{"#", "ID", "Captured", "QA", "Verification", "Remarks"}
				fmt.Fprintln(ctx.out, renderTable(headers, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
}

func newPhotoReviewCommand(ctx *commandContext) *cobra.Command {
	var remarks string

	cmd := &cobra.Command{
		Use:   "review RECORD PHOTO STATUS",
		Short: "Set the QA status of a photo (PENDING, PASSED, RETAKE)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.QAStatus(strings.ToUpper(args[2]))
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := findRecord(a.Session.Project(), args[0])
				if err != nil {
					return err
				}
				ph, err := findPhoto(rec, args[1])
				if err != nil {
					return err
				}
				if err := a.Session.SetPhotoReview(rec.ID, ph.ID, status, remarks); err != nil {
					return err
				}
				ctx.printf("Photo %s marked %s\n", shortID(ph.ID), status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&remarks, "remarks", "", "review remarks")
	return cmd
}

func newPhotoGetCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get RECORD PHOTO",
		Short: "Write the full-resolution image to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := findRecord(a.Session.Project(), args[0])
				if err != nil {
					return err
				}
				ph, err := findPhoto(rec, args[1])
				if err != nil {
					return err
				}
				data, err := a.Session.FullImage(c, ph.ID)
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = ph.ID + ".jpg"
				}
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return err
				}
				ctx.printf("Wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, defaults to <photo id>.jpg")
	return cmd
}

func newPhotoDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete RECORD PHOTO",
		Aliases: []string{"rm"},
		Short:   "Remove a photo and its stored image",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rec, err := findRecord(a.Session.Project(), args[0])
				if err != nil {
					return err
				}
				ph, err := findPhoto(rec, args[1])
				if err != nil {
					return err
				}
				if err := a.Session.DeletePhoto(c, rec.ID, ph.ID); err != nil {
					return err
				}
				ctx.printf("Deleted photo %s\n", shortID(ph.ID))
				return nil
			})
		},
	}
}
