package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Compile the project archive and deliver it",
		Long: "Compile the project into a zip archive with a KMZ overlay and deliver it " +
			"to the export directory, the share command or the downloads folder, " +
			"whichever is configured and succeeds first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				rep, err := a.Session.Export(c)
				if err != nil {
					return err
				}
				res := rep.Archive
				if rep.Receipt.Outcome == export.Cancelled {
					ctx.printf("Export of %s cancelled via %s\n", res.FileName, rep.Receipt.Channel)
					return nil
				}
				ctx.printf("Exported %s via %s\n", res.FileName, rep.Receipt.Channel)
				if rep.Receipt.Location != "" {
					ctx.printf("Location: %s\n", rep.Receipt.Location)
				}
				ctx.printf("Records: %d, photos: %d\n", res.Records, res.Photos)
				if res.Missing > 0 {
					ctx.printf("Warning: %d photo(s) had no stored image\n", res.Missing)
				}
				if res.Collisions > 0 {
					ctx.printf("Warning: %d record(s) skipped, folder name already used\n", res.Collisions)
				}
				return nil
			})
		},
	}
}
