package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/config"
)

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	ctx := newCommandContext(out, errOut)

	rootCmd := &cobra.Command{
		Use:           "ospsurvey",
		Short:         "Local-first OSP field survey store and exporter",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newProjectCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newPhotoCommand(ctx))
	rootCmd.AddCommand(newRepairCommand(ctx))
	rootCmd.AddCommand(newGCCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))
	rootCmd.AddCommand(newActivateCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))

	return rootCmd
}
