package main

import (
	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/buildinfo"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildinfo.PrintBuildData(ctx.out)
			return nil
		},
	}
}
