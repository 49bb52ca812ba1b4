package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
	"github.com/audio-forge-rs/find-all-bitwig/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if jsonOut {
				return ui.NewRenderer(os.Stdout).JSON(version.GetInfo())
			}
			fmt.Println(version.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit version info as JSON")
	return cmd
}
