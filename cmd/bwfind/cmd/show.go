package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
)

func newShowCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id|path>",
		Short: "Show a single content record",
		Long: `Show the full catalog record for one piece of content, looked up
by id or by absolute file path.

Examples:
  bwfind show 42
  bwfind show ~/Bitwig/Library/Presets/Polymer/Warm\ Bass.bwpreset`,
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

			var content *catalog.Content
			if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
				content, err = store.GetContent(cmd.Context(), id)
				if err != nil {
					return err
				}
			} else {
				content, err = store.GetContentByPath(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return ui.NewRenderer(os.Stdout).JSON(content)
			}
			printContent(content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the record as JSON")

	return cmd
}

func printContent(c *catalog.Content) {
	fmt.Printf("Name:         %s\n", c.Name)
	fmt.Printf("Type:         %s\n", c.ContentType)
	fmt.Printf("Path:         %s\n", c.FilePath)
	if c.ParentDevice != "" {
		fmt.Printf("Device:       %s\n", c.ParentDevice)
	}
	if c.DeviceType != nil {
		fmt.Printf("Device type:  %s\n", *c.DeviceType)
	}
	if c.Category != "" {
		fmt.Printf("Category:     %s\n", c.Category)
	}
	if len(c.Tags) > 0 {
		fmt.Printf("Tags:         %s\n", strings.Join(c.Tags, ", "))
	}
	if c.Creator != "" {
		fmt.Printf("Creator:      %s\n", c.Creator)
	}
	if c.SampleRate > 0 {
		fmt.Printf("Audio:        %d Hz, %d ch, %d ms\n", c.SampleRate, c.Channels, c.DurationMS)
	}
	fmt.Printf("Size:         %d bytes\n", c.FileSize)
	if c.FileHash != "" {
		fmt.Printf("Hash:         %s\n", c.FileHash)
	}
	fmt.Printf("Indexed:      %s\n", c.IndexedAt.Format("2006-01-02 15:04:05"))
}
