package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe [URL]",
		Short: "Print the content length a server advertises for a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(globalConfig.EngineOptions())
			if err != nil {
				return err
			}
			probeURL, err := newLinkResolver(globalConfig).ProbeURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			length, err := engine.Probe(cmd.Context(), probeURL)
			if err != nil {
				return err
			}
			if !length.Known {
				fmt.Println("unknown")
				return nil
			}
			fmt.Println(length.Size)
			return nil
		},
	}
}
