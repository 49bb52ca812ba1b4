package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/search"
	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
)

func newSuggestCmd() *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Autocomplete content names by prefix",
		Long: `Suggest content names starting with a prefix, most frequently
matched first. Frequency counts catalog occurrences plus recorded
usage, so often-used names rank above rarely-touched ones.

Example:
  bwfind suggest poly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := search.NewEngine(store, cfg.Search)
			suggestions, err := engine.Suggest(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			renderer := ui.NewRenderer(os.Stdout)
			if jsonOut {
				return renderer.JSON(suggestions)
			}
			renderer.Suggestions(suggestions)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum suggestions")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit suggestions as JSON")

	return cmd
}
