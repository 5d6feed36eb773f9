package load

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/sparkify-etl/internal/report"
	"github.com/franz/sparkify-etl/internal/scan"
	"github.com/franz/sparkify-etl/internal/store"
	"github.com/franz/sparkify-etl/internal/transform"
	"github.com/franz/sparkify-etl/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
)

// Driver walks a source root and loads each file in its own transaction
type Driver struct {
	store   *store.Store
	fs      afero.Fs
	scanner *scan.Scanner
	logger  *report.EventLogger
	showBar bool
}

// Config holds driver configuration
type Config struct {
	Store      *store.Store
	Fs         afero.Fs
	Extensions []string
	Logger     *report.EventLogger
	// ProgressBar draws an interactive bar instead of per-file lines
	ProgressBar bool
}

// Result contains the outcome of processing one root
type Result struct {
	Root           string
	FilesFound     int
	FilesProcessed int
	Bytes          int64
	Rows           transform.Result
	Duration       time.Duration
}

// Totals converts the result for the end-of-run summary
func (r *Result) Totals() report.RootTotals {
	return report.RootTotals{
		Root:      r.Root,
		Files:     r.FilesProcessed,
		Bytes:     r.Bytes,
		Records:   r.Rows.Records,
		Skipped:   r.Rows.Skipped,
		Songplays: r.Rows.Songplays,
		Matched:   r.Rows.Matched,
		Duration:  r.Duration,
	}
}

// New creates a new Driver
func New(cfg *Config) *Driver {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Driver{
		store:   cfg.Store,
		fs:      fs,
		scanner: scan.New(&scan.Config{Fs: fs, Extensions: cfg.Extensions}),
		logger:  cfg.Logger,
		showBar: cfg.ProgressBar,
	}
}

// Process discovers every source file under root and feeds each one to fn
// inside a transaction that is committed before the next file starts. The
// first failing file is rolled back and stops the batch; files committed
// before it stay loaded.
func (d *Driver) Process(ctx context.Context, root string, fn transform.FileFunc) (*Result, error) {
	start := time.Now()
	result := &Result{Root: root}

	files, err := d.scanner.Discover(root)
	if err != nil {
		return result, err
	}
	result.FilesFound = len(files)
	d.logger.LogDiscover(root, len(files))
	util.ProgressLog("%d files found in %s", len(files), root)

	var bar *progressbar.ProgressBar
	if d.showBar && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Loading"),
			progressbar.OptionSetWidth(barWidth()),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		rows, size, err := d.processFile(ctx, path, fn)
		if err != nil {
			d.logger.LogError(path, err)
			if bar != nil {
				bar.Exit()
			}
			result.Duration = time.Since(start)
			return result, err
		}

		result.FilesProcessed++
		result.Bytes += size
		result.Rows.Add(rows)

		if bar != nil {
			bar.Add(1)
		} else {
			util.ProgressLog("%d/%d files processed.", i+1, len(files))
		}
	}

	if bar != nil {
		bar.Finish()
	}

	result.Duration = time.Since(start)
	util.DebugLog("Processed %d files under %s in %v", result.FilesProcessed, root, result.Duration.Round(time.Millisecond))
	return result, nil
}

func (d *Driver) processFile(ctx context.Context, path string, fn transform.FileFunc) (transform.Result, int64, error) {
	fileStart := time.Now()

	var size int64
	if info, err := d.fs.Stat(path); err == nil {
		size = info.Size()
	}

	cur, err := d.store.Begin(ctx)
	if err != nil {
		return transform.Result{}, size, err
	}
	defer cur.Rollback()

	rows, err := fn(ctx, cur, d.fs, path)
	if err != nil {
		return rows, size, err
	}
	if err := cur.Commit(); err != nil {
		return rows, size, fmt.Errorf("%s: %w", path, err)
	}

	d.logger.LogLoad(path, size, rowCounts(rows), time.Since(fileStart))
	util.DebugLog("Loaded %s (%d records)", path, rows.Records)
	return rows, size, nil
}

// rowCounts maps statement counts to their target tables
func rowCounts(r transform.Result) map[string]int {
	counts := map[string]int{
		"songs":     r.Songs,
		"artists":   r.Artists,
		"time":      r.Times,
		"users":     r.Users,
		"songplays": r.Songplays,
	}
	for table, n := range counts {
		if n == 0 {
			delete(counts, table)
		}
	}
	return counts
}

func barWidth() int {
	width := util.GetTerminalWidth() / 3
	if width < 20 {
		return 20
	}
	if width > 60 {
		return 60
	}
	return width
}
