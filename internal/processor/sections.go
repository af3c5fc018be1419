// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"context"
	"log/slog"

	"github.com/pdiddy/wikidump/internal/dump"
	"github.com/pdiddy/wikidump/internal/extract"
	"github.com/pdiddy/wikidump/internal/output"
	"github.com/pdiddy/wikidump/pkg/types"
)

// maxSectionLevel is the deepest level counted separately; deeper headers
// are counted with it.
const maxSectionLevel = 6

// SectionCountHeader is the column layout of count-sections output.
var SectionCountHeader = []string{
	"page_id",
	"page_title",
	"revision_id",
	"revision_parent_id",
	"revision_timestamp",
	"sections",
	"level_1",
	"level_2",
	"level_3",
	"level_4",
	"level_5",
	"level_6",
}

// SectionCounter counts the header sections of every revision.
type SectionCounter struct {
	onlyLast bool
	log      *slog.Logger
}

// NewSectionCounter returns the count-sections processor.
func NewSectionCounter(cfg types.ExtractConfig, logger *slog.Logger) *SectionCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SectionCounter{onlyLast: cfg.OnlyLastRevision, log: logger}
}

func (p *SectionCounter) Name() string     { return "count-sections" }
func (p *SectionCounter) Header() []string { return SectionCountHeader }

func (p *SectionCounter) Process(_ context.Context, page *dump.Page, fw *output.FeatureWriter, stats *types.Stats) error {
	revs := validRevisions(page, p.log)
	if p.onlyLast {
		revs = lastOnly(revs)
	}

	for rev := range revs {
		total, levels := countSections(extract.RemoveComments(rev.Text))

		values := []any{
			page.ID, page.Title,
			rev.ID, rev.ParentID, rev.TimestampString(),
			total,
		}
		for _, n := range levels {
			values = append(values, n)
		}
		if err := fw.Write(values...); err != nil {
			return writeErr(err)
		}
		stats.Performance.RevisionsAnalyzed++
	}
	return nil
}

func countSections(text string) (total int, levels [maxSectionLevel]int) {
	for c := range extract.Sections(text, false) {
		total++
		levels[min(c.Data.Level, maxSectionLevel)-1]++
	}
	return total, levels
}
