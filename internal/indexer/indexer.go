package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// Mode selects how much of the library a run re-reads.
type Mode int

const (
	// ModeIncremental skips files whose size and mtime are unchanged since
	// the last run.
	ModeIncremental Mode = iota
	// ModeFull re-extracts every file regardless of stored fingerprints.
	// Records keep their ids; nothing is deleted.
	ModeFull
)

// State is the externally visible phase of a run.
type State string

const (
	StateIdle        State = "idle"
	StateScanning    State = "scanning"
	StateReconciling State = "reconciling"
	StateDone        State = "done"
)

// Options controls a single indexing run.
type Options struct {
	Mode Mode

	// Paths overrides the configured library roots when non-empty.
	Paths []string

	// Types restricts the run to the given content types when non-empty.
	Types []catalog.ContentType

	// Workers overrides the configured extraction parallelism when > 0.
	Workers int

	// DryRun reports what would be indexed without writing anything.
	DryRun bool
}

// FileFailure is one file that could not be indexed.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Summary reports the outcome of one run.
type Summary struct {
	Packages   int           `json:"packages"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Failures   []FileFailure `json:"failures,omitempty"`
	Duplicates int           `json:"duplicate_groups"`
	Duration   time.Duration `json:"duration"`
}

// Indexer reconciles the catalog with the library roots on disk.
type Indexer struct {
	store   *catalog.Store
	roots   []string
	workers int
	log     *slog.Logger

	mu    sync.Mutex
	state State
}

// New builds an Indexer over store crawling the given roots.
func New(store *catalog.Store, roots []string, workers int, log *slog.Logger) *Indexer {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{
		store:   store,
		roots:   roots,
		workers: workers,
		log:     log,
		state:   StateIdle,
	}
}

// State returns the current run phase.
func (i *Indexer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Indexer) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

type job struct {
	path  string
	info  fs.FileInfo
	pkgID *int64

	// known marks paths already present in the catalog, so the summary can
	// tell inserts from updates.
	known bool
}

// Run executes one indexing run. At most one run may write to a catalog at a
// time; concurrent runs fail fast on the lock rather than queueing.
//
// Per-file extraction errors accumulate in the summary and never abort the
// run. A fatal storage error or context cancellation stops the run between
// files; the summary returned alongside the error still counts the work
// that completed.
func (i *Indexer) Run(ctx context.Context, opts Options) (*Summary, error) {
	unlock, err := i.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	defer i.setState(StateIdle)
	i.setState(StateScanning)
	start := time.Now()
	summary := &Summary{}

	roots := opts.Paths
	if len(roots) == 0 {
		roots = i.roots
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = i.workers
	}

	var wantTypes map[catalog.ContentType]bool
	if len(opts.Types) > 0 {
		wantTypes = make(map[catalog.ContentType]bool, len(opts.Types))
		for _, t := range opts.Types {
			wantTypes[t] = true
		}
	}

	// Fingerprints of everything already indexed. Incremental runs use them
	// to skip unchanged files; both modes use them to tell inserts from
	// updates in the summary.
	states, err := i.store.FileStates(ctx)
	if err != nil {
		return nil, err
	}

	jobs, err := i.scan(ctx, roots, wantTypes, states, opts.Mode, opts.DryRun, summary)
	if err != nil {
		return nil, err
	}

	i.log.Info("scan complete",
		slog.Int("packages", summary.Packages),
		slog.Int("files", len(jobs)),
		slog.Int("skipped", summary.Skipped))

	if opts.DryRun {
		for _, j := range jobs {
			if j.known {
				summary.Updated++
			} else {
				summary.Inserted++
			}
		}
		summary.Duration = time.Since(start)
		i.setState(StateDone)
		return summary, nil
	}

	i.setState(StateReconciling)
	if err := i.reconcile(ctx, jobs, workers, summary); err != nil {
		// Rows written before the abort persist; hand the caller the
		// partial counts along with the error.
		summary.Duration = time.Since(start)
		return summary, err
	}

	// Duplicate content is advisory: surfaced, never merged.
	if groups, err := i.store.DuplicateHashes(ctx); err == nil {
		summary.Duplicates = len(groups)
		if len(groups) > 0 {
			i.log.Warn("duplicate content detected", slog.Int("groups", len(groups)))
		}
	}

	summary.Duration = time.Since(start)
	i.setState(StateDone)
	i.log.Info("indexing complete",
		slog.Int("inserted", summary.Inserted),
		slog.Int("updated", summary.Updated),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

// acquireLock takes the single-indexer file lock next to the database.
func (i *Indexer) acquireLock() (func(), error) {
	if i.store.Path() == ":memory:" {
		return func() {}, nil
	}
	lock := flock.New(i.store.Path() + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another indexer is already running (lock held on %s)", lock.Path())
	}
	return func() { _ = lock.Unlock() }, nil
}

// scan registers packages and collects the files a run will touch.
func (i *Indexer) scan(ctx context.Context, roots []string, wantTypes map[catalog.ContentType]bool,
	states map[string]catalog.FileState, mode Mode, dryRun bool, summary *Summary) ([]job, error) {

	var jobs []job
	collect := func(pkgID *int64) func(path string, info fs.FileInfo) error {
		return func(path string, info fs.FileInfo) error {
			if wantTypes != nil {
				t, _ := ContentTypeForPath(path)
				if !wantTypes[t] {
					return nil
				}
			}
			st, known := states[path]
			if mode == ModeIncremental && known &&
				st.Size == info.Size() && st.ModifiedAt.Unix() == info.ModTime().Unix() {
				summary.Skipped++
				return nil
			}
			jobs = append(jobs, job{path: path, info: info, pkgID: pkgID, known: known})
			return nil
		}
	}

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			i.log.Warn("library root unavailable", slog.String("root", root))
			continue
		}

		packages, err := DiscoverPackages(root)
		if err != nil {
			return nil, fmt.Errorf("discovering packages under %s: %w", root, err)
		}
		for idx := range packages {
			pkg := &packages[idx]
			var pkgID *int64
			if !dryRun {
				if err := i.store.UpsertPackage(ctx, pkg); err != nil {
					return nil, err
				}
				pkgID = &pkg.ID
			}
			summary.Packages++
			if err := walkContent(ctx, pkg.Path, collect(pkgID)); err != nil {
				return nil, err
			}
		}

		// Loose user-library content outside any package.
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() && (d.Name() == "installed-packages" || (strings.HasPrefix(d.Name(), ".") && path != root)) {
				return filepath.SkipDir
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := ContentTypeForPath(path); !ok {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			return collect(nil)(path, info)
		})
		if err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// reconcile fans extraction out across workers and funnels every write
// through a single writer, so the database never sees concurrent writers.
func (i *Indexer) reconcile(ctx context.Context, jobs []job, workers int, summary *Summary) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		content *catalog.Content
		known   bool
	}

	jobCh := make(chan job)
	results := make(chan result, workers)

	var failMu sync.Mutex
	fail := func(path string, err error) {
		i.log.Warn("file skipped", slog.String("path", path), slog.Any("error", err))
		failMu.Lock()
		summary.Failed++
		summary.Failures = append(summary.Failures, FileFailure{Path: path, Err: err.Error()})
		failMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case jobCh <- j:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var extractWG sync.WaitGroup
	for w := 0; w < workers; w++ {
		extractWG.Add(1)
		g.Go(func() error {
			defer extractWG.Done()
			for j := range jobCh {
				c, err := Extract(j.path, j.info, j.pkgID)
				if err != nil {
					fail(j.path, err)
					continue
				}
				select {
				case results <- result{content: c, known: j.known}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		extractWG.Wait()
		close(results)
	}()

	var writerErr error
	for r := range results {
		if ctx.Err() != nil {
			break
		}
		err := i.store.UpsertContent(ctx, r.content)
		if err != nil && bwerrors.IsRetryable(err) {
			// A lost insert race resolves as an update on retry.
			err = i.store.UpsertContent(ctx, r.content)
		}
		if err != nil {
			if bwerrors.IsFatal(err) {
				writerErr = err
				cancel()
				break
			}
			fail(r.content.FilePath, err)
			continue
		}
		if r.known {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}
	for range results {
		// Drain after abort so extraction goroutines can exit.
	}

	if err := g.Wait(); writerErr == nil && err != nil && ctx.Err() == nil {
		writerErr = err
	}
	if writerErr != nil {
		return writerErr
	}
	return context.Cause(ctx)
}
