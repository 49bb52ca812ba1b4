package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	"github.com/audio-forge-rs/find-all-bitwig/internal/search"
	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
)

// filterFlags holds the filter predicates shared by search and smart
// collections.
type filterFlags struct {
	contentType  string
	deviceType   string
	category     string
	packageID    int64
	parentDevice string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.contentType, "type", "t", "", "Filter by content type (preset, sample, clip, ...)")
	cmd.Flags().StringVarP(&f.deviceType, "device-type", "d", "", "Filter by device type (instrument, audio_fx, ...)")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Filter by category substring")
	cmd.Flags().Int64Var(&f.packageID, "package", 0, "Filter by package id")
	cmd.Flags().StringVar(&f.parentDevice, "parent-device", "", "Filter by parent device substring")
}

func (f *filterFlags) toFilters() (catalog.Filters, error) {
	var filters catalog.Filters
	if f.contentType != "" {
		ct, err := catalog.ParseContentType(f.contentType)
		if err != nil {
			return catalog.Filters{}, err
		}
		filters.ContentType = &ct
	}
	if f.deviceType != "" {
		dt, err := catalog.ParseDeviceType(f.deviceType)
		if err != nil {
			return catalog.Filters{}, err
		}
		filters.DeviceType = &dt
	}
	filters.CategoryContains = f.category
	if f.packageID != 0 {
		filters.PackageID = &f.packageID
	}
	filters.ParentDeviceContains = f.parentDevice
	return filters, nil
}

// searchOptions holds CLI flags for search.
type searchOptions struct {
	filters filterFlags
	limit   int
	offset  int
	format  string // "table", "json", "paths"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog with ranked relevance",
		Long: `Search indexed content by free text and filters.

Results blend full-text rank, fuzzy name similarity, and parent
device similarity. An empty query browses by filters alone, ordered
by name.

Examples:
  bwfind search "warm bass"
  bwfind search plymer                       # typo still finds Polymer
  bwfind search reverb -t preset -d audio_fx
  bwfind search -t sample --category Drums --format paths`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	opts.filters.register(cmd)
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum results per page (default: configured)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Skip the first N results")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: table, json, paths")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filters, err := opts.filters.toFilters()
	if err != nil {
		return err
	}

	engine := search.NewEngine(store, cfg.Search)
	results, err := engine.Search(cmd.Context(), search.Query{
		Text:    query,
		Filters: filters,
		Limit:   opts.limit,
		Offset:  opts.offset,
	})
	if err != nil {
		return err
	}

	renderer := ui.NewRenderer(os.Stdout)
	switch opts.format {
	case "json":
		return renderer.JSON(results)
	case "paths":
		renderer.Paths(results)
		return nil
	case "table":
		renderer.Results(results, opts.offset)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json, or paths)", opts.format)
	}
}
