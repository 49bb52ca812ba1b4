package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUseCmd() *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Record that a piece of content was used",
		Long: `Append a usage event for a content record. Usage history feeds
autocomplete ranking, so content you reach for often surfaces first.

Example:
  bwfind use 42 --action loaded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid content id %q", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.LogUsage(cmd.Context(), id, action, nil); err != nil {
				return err
			}
			fmt.Printf("Recorded %q for content %d\n", action, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&action, "action", "used", "Action to record (loaded, favorited, ...)")

	return cmd
}
