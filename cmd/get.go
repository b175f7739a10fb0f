package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/stagedl/internal/config"
	"github.com/tanq16/stagedl/internal/output"
	"github.com/tanq16/stagedl/internal/utils"
)

func newGetCmd() *cobra.Command {
	var segmented, quiet bool
	var chunkSize, minSize string
	cmd := &cobra.Command{
		Use:   "get [URL] [OPTIONS]",
		Short: "Download a http(s):// or s3:// link into the staging directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := globalConfig.EngineOptions()
			if cmd.Flags().Changed("segmented") {
				opts.Segmented = segmented
			}
			if chunkSize != "" {
				size, err := config.ParseChunkSize(chunkSize)
				if err != nil {
					return fmt.Errorf("invalid --chunk-size: %w", err)
				}
				opts.ChunkSize = size
			}
			if minSize != "" {
				size, err := utils.ParseBytes(minSize)
				if err != nil {
					return fmt.Errorf("invalid --min-size: %w", err)
				}
				opts.MinSize = size
			}
			printer := output.NewProgressPrinter(os.Stderr)
			if !quiet {
				opts.Progress = printer.Update
			}
			engine, err := newEngine(opts)
			if err != nil {
				return err
			}

			resolver := newLinkResolver(globalConfig)
			target, err := resolver.Target(args[0])
			if err != nil {
				return err
			}
			target, err = resolver.Sign(cmd.Context(), target)
			if err != nil {
				return err
			}
			path, err := engine.Fetch(cmd.Context(), target)
			printer.Finish()
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to stage %s", args[0]))
				return err
			}
			output.PrintInfo(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&segmented, "segmented", true, "Fetch known-length files as sequential ranged requests")
	cmd.Flags().StringVarP(&chunkSize, "chunk-size", "c", "", "Byte length of each ranged request (eg. 640KB, 4MB)")
	cmd.Flags().StringVar(&minSize, "min-size", "", "Reject files advertising fewer bytes than this (eg. 1MB)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}
