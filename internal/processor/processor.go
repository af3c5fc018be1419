// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package processor drives the extractors over MediaWiki dumps. Each
// processor turns the article pages of one dump into CSV feature rows; a
// Runner handles the files, the page loop, and the run statistics shared by
// all of them.
package processor

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/pdiddy/wikidump/internal/dump"
	"github.com/pdiddy/wikidump/internal/output"
	"github.com/pdiddy/wikidump/pkg/types"
)

// Processor turns the pages of a dump into feature rows.
type Processor interface {
	// Name is the subcommand name, recorded in the stats file.
	Name() string

	// Header returns the CSV column names.
	Header() []string

	// Process writes the rows of one article page. Per-revision problems
	// are logged and counted in stats; a returned error aborts the run.
	Process(ctx context.Context, page *dump.Page, fw *output.FeatureWriter, stats *types.Stats) error
}

// Runner runs a processor over dump files.
type Runner struct {
	Output types.OutputConfig

	// Logger receives structured diagnostics. Nil uses slog.Default().
	Logger *slog.Logger

	// Progress receives one human-readable line per page. Nil discards.
	Progress io.Writer

	// RunID is recorded in every stats file of the run.
	RunID string
}

// NewRunner returns a Runner with a fresh run id.
func NewRunner(cfg types.OutputConfig, logger *slog.Logger, progress io.Writer) *Runner {
	return &Runner{
		Output:   cfg,
		Logger:   logger,
		Progress: progress,
		RunID:    uuid.NewString(),
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) progress() io.Writer {
	if r.Progress == nil {
		return io.Discard
	}
	return r.Progress
}

// BatchResult holds the outcome of running a processor over several dumps.
type BatchResult struct {
	Processed int
	Failed    int
	Stats     []types.Stats
}

// Total returns the number of input files handled.
func (b BatchResult) Total() int {
	return b.Processed + b.Failed
}

// HasFailures reports whether any input failed.
func (b BatchResult) HasFailures() bool {
	return b.Failed > 0
}

// RunBatch runs p over every input, continuing after individual failures.
// It stops early only when ctx is done.
func (r *Runner) RunBatch(ctx context.Context, p Processor, inputs []string) BatchResult {
	var result BatchResult
	w := r.progress()
	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		stats, err := r.Run(ctx, p, input)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", input, err)
			r.logger().Error("processing dump failed", "input", input, "processor", p.Name(), "error", err)
			result.Failed++
			continue
		}
		result.Processed++
		result.Stats = append(result.Stats, stats)
	}
	return result
}

// Run runs p over one dump and writes its features and stats files.
func (r *Runner) Run(ctx context.Context, p Processor, input string) (types.Stats, error) {
	log := r.logger().With("processor", p.Name(), "input", input)
	w := r.progress()

	if info, err := os.Stat(input); err == nil {
		log.Info("analyzing dump", "size", humanize.Bytes(uint64(info.Size())))
	}

	rd, err := dump.Open(input)
	if err != nil {
		return types.Stats{}, err
	}
	defer rd.Close()

	features, err := output.Create(r.Output, output.FeaturesName(input))
	if err != nil {
		return types.Stats{}, err
	}
	defer features.Close()

	fw, err := output.NewFeatureWriter(features, p.Header()...)
	if err != nil {
		return types.Stats{}, fmt.Errorf("writing features header: %w", err)
	}

	stats := types.Stats{
		RunID:     r.RunID,
		Processor: p.Name(),
		Input:     input,
	}
	stats.Performance.StartTime = time.Now().UTC()

	for page, err := range rd.Pages() {
		if err != nil {
			return stats, err
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if !page.IsArticle() {
			fmt.Fprintf(w, "skipped %d (namespace %d)\n", page.ID, page.Namespace)
			stats.Performance.PagesSkipped++
			continue
		}

		fmt.Fprintf(w, "processing %d %s\n", page.ID, page.Title)
		if err := p.Process(ctx, page, fw, &stats); err != nil {
			return stats, fmt.Errorf("page %d: %w", page.ID, err)
		}
		stats.Performance.PagesAnalyzed++
	}

	if err := fw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing features: %w", err)
	}
	if err := features.Close(); err != nil {
		return stats, fmt.Errorf("closing %s: %w", features.Path, err)
	}

	stats.Performance.RowsWritten = fw.Rows()
	stats.Performance.EndTime = time.Now().UTC()

	if err := r.writeStats(stats, input); err != nil {
		return stats, err
	}

	fmt.Fprintf(w, "done    %s (%s pages, %s revisions, %s rows)\n", input,
		humanize.Comma(int64(stats.Performance.PagesAnalyzed)),
		humanize.Comma(int64(stats.Performance.RevisionsAnalyzed)),
		humanize.Comma(int64(stats.Performance.RowsWritten)))
	log.Info("dump analyzed",
		"pages", stats.Performance.PagesAnalyzed,
		"revisions", stats.Performance.RevisionsAnalyzed,
		"grammar_faults", stats.Errors.GrammarFaults,
		"timeouts", stats.Errors.Timeouts,
		"elapsed", stats.Duration().Round(time.Millisecond))

	return stats, nil
}

func (r *Runner) writeStats(stats types.Stats, input string) error {
	f, err := output.Create(r.Output, output.StatsName(input))
	if err != nil {
		return err
	}
	if err := output.WriteStats(f, stats); err != nil {
		f.Close()
		return fmt.Errorf("writing stats: %w", err)
	}
	return f.Close()
}

// validRevisions yields the revisions of page that decode, logging the rest.
func validRevisions(page *dump.Page, log *slog.Logger) iter.Seq[types.Revision] {
	return func(yield func(types.Revision) bool) {
		for rev, err := range page.Revisions() {
			if err != nil {
				log.Warn("skipping malformed revision", "page_id", page.ID, "error", err)
				continue
			}
			if !yield(rev) {
				return
			}
		}
	}
}

// sortedByTime returns revs ordered by timestamp. Revisions with equal
// timestamps keep their dump order.
func sortedByTime(revs []types.Revision) []types.Revision {
	slices.SortStableFunc(revs, func(a, b types.Revision) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return revs
}

func writeErr(err error) error {
	return fmt.Errorf("writing row: %w", err)
}
