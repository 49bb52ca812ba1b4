package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	"github.com/audio-forge-rs/find-all-bitwig/internal/indexer"
	"github.com/audio-forge-rs/find-all-bitwig/internal/ui"
	"github.com/audio-forge-rs/find-all-bitwig/internal/watcher"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	full    bool
	watch   bool
	dryRun  bool
	workers int
	paths   []string
	types   []string
	jsonOut bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Crawl library roots and update the catalog",
		Long: `Crawl the configured Bitwig library roots and reconcile the catalog
with what is on disk.

By default only new and changed files are re-read. Use --full to
re-extract everything. Per-file failures are reported in the summary
and never abort the run.

Examples:
  bwfind index
  bwfind index --full
  bwfind index --path ~/Music/Samples --type sample
  bwfind index --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.full, "full", false, "Re-extract every file regardless of fingerprints")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep running and reindex on library changes")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would be indexed without writing")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Extraction workers (default: configured)")
	cmd.Flags().StringSliceVar(&opts.paths, "path", nil, "Index these paths instead of the configured roots")
	cmd.Flags().StringSliceVar(&opts.types, "type", nil, "Restrict to content types (e.g. preset,sample)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Emit the run summary as JSON")

	return cmd
}

func runIndex(cmd *cobra.Command, opts indexOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runOpts := indexer.Options{
		Paths:   opts.paths,
		Workers: opts.workers,
		DryRun:  opts.dryRun,
	}
	if opts.full {
		runOpts.Mode = indexer.ModeFull
	}
	for _, t := range opts.types {
		ct, err := catalog.ParseContentType(t)
		if err != nil {
			return err
		}
		runOpts.Types = append(runOpts.Types, ct)
	}

	workers := cfg.Index.Workers
	idx := indexer.New(store, cfg.Library.Roots, workers, slog.Default())
	renderer := ui.NewRenderer(os.Stdout)

	summary, err := idx.Run(cmd.Context(), runOpts)
	if err != nil {
		return err
	}
	if opts.jsonOut {
		if err := renderer.JSON(summary); err != nil {
			return err
		}
	} else {
		renderer.Summary(summary)
	}

	if !opts.watch {
		return nil
	}

	debounce, err := time.ParseDuration(cfg.Index.WatchDebounce)
	if err != nil {
		debounce = 500 * time.Millisecond
	}
	roots := opts.paths
	if len(roots) == 0 {
		roots = cfg.Library.Roots
	}

	fmt.Fprintln(os.Stderr, "Watching for library changes (ctrl-c to stop)...")
	w := watcher.New(roots, debounce, func(ctx context.Context) error {
		incremental := runOpts
		incremental.Mode = indexer.ModeIncremental
		s, err := idx.Run(ctx, incremental)
		if err != nil {
			return err
		}
		if s.Inserted > 0 || s.Updated > 0 || s.Failed > 0 {
			renderer.Summary(s)
		}
		return nil
	}, slog.Default())
	return w.Watch(cmd.Context())
}
