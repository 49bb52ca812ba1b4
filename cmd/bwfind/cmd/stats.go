package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.ContentStats(cmd.Context())
			if err != nil {
				return err
			}
			renderer := ui.NewRenderer(os.Stdout)
			if jsonOut {
				return renderer.JSON(stats)
			}
			renderer.Stats(stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit statistics as JSON")
	return cmd
}
