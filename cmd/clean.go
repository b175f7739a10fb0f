package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/stagedl/internal/output"
	"github.com/tanq16/stagedl/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the staging directory and everything staged in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := stagingDirFor(globalConfig)
			if err := utils.Clean(dir); err != nil {
				output.PrintError("Error cleaning up staged files")
				return err
			}
			output.PrintSuccess("Cleaned " + dir)
			return nil
		},
	}
}
