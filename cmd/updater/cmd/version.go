package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/updater/internal/simd"
)

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and SIMD lane information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "updater %s\n", Version)
			fmt.Fprintf(out, "lane width: %d (host supports %d)\n", simd.Width, simd.NativeWidth())
			fmt.Fprintf(out, "cpu features: %s\n", simd.Features())
			return nil
		},
	}
	return cmd
}
