package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
)

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage static and smart collections",
		Long: `Collections group content. Static collections hold an explicit
member list; smart collections store a filter and resolve it against
the live catalog every time they are read.`,
	}

	cmd.AddCommand(newCollectionCreateCmd())
	cmd.AddCommand(newCollectionCreateSmartCmd())
	cmd.AddCommand(newCollectionAddCmd())
	cmd.AddCommand(newCollectionRemoveCmd())
	cmd.AddCommand(newCollectionListCmd())
	cmd.AddCommand(newCollectionShowCmd())
	cmd.AddCommand(newCollectionDeleteCmd())

	return cmd
}

func newCollectionCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a static collection",
		Args:  cobra.ExactArgs(1),
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

			col, err := store.CreateCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created collection %q (id %d)\n", col.Name, col.ID)
			return nil
		},
	}
}

func newCollectionCreateSmartCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "create-smart <name>",
		Short: "Create a smart collection from filters",
		Long: `Create a collection whose members are defined by a filter instead of
an explicit list. The filter is validated now; evaluation always runs
against the current catalog, so newly indexed content appears as soon
as it matches.

Example:
  bwfind collection create-smart "Factory Bass" -t preset -c Bass`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := flags.toFilters()
			if err != nil {
				return err
			}
			if filters.IsZero() {
				return fmt.Errorf("a smart collection needs at least one filter")
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

			col, err := store.CreateSmartCollection(cmd.Context(), args[0], filters)
			if err != nil {
				return err
			}
			fmt.Printf("Created smart collection %q (id %d)\n", col.Name, col.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newCollectionAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <content-id>...",
		Short: "Add content to a static collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
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

			if err := store.AddToCollection(cmd.Context(), args[0], ids...); err != nil {
				return err
			}
			fmt.Printf("Added %d item(s) to %q\n", len(ids), args[0])
			return nil
		},
	}
}

func newCollectionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name> <content-id>...",
		Short: "Remove content from a static collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
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

			if err := store.RemoveFromCollection(cmd.Context(), args[0], ids...); err != nil {
				return err
			}
			fmt.Printf("Removed %d item(s) from %q\n", len(ids), args[0])
			return nil
		},
	}
}

func newCollectionListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
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

			cols, err := store.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			renderer := ui.NewRenderer(os.Stdout)
			if jsonOut {
				return renderer.JSON(cols)
			}
			renderer.Collections(cols)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit collections as JSON")
	return cmd
}

func newCollectionShowCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a collection's current members",
		Args:  cobra.ExactArgs(1),
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

			members, err := store.EvaluateCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderer := ui.NewRenderer(os.Stdout)
			if jsonOut {
				return renderer.JSON(members)
			}
			if len(members) == 0 {
				fmt.Println("Empty collection.")
				return nil
			}
			for _, m := range members {
				fmt.Printf("%6d  %-30s %-12s %s\n", m.ID, m.Name, m.ContentType, m.FilePath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit members as JSON")
	return cmd
}

func newCollectionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection (content is untouched)",
		Args:  cobra.ExactArgs(1),
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

			if err := store.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted collection %q\n", args[0])
			return nil
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid content id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
