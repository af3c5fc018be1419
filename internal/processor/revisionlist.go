// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"context"
	"log/slog"
	"slices"

	"github.com/pdiddy/wikidump/internal/dump"
	"github.com/pdiddy/wikidump/internal/output"
	"github.com/pdiddy/wikidump/pkg/types"
)

// RevisionListHeader is the column layout of extract-revisionlist output.
// With change bytes enabled a change_bytes column is appended.
var RevisionListHeader = []string{
	"page_id",
	"page_title",
	"revision_id",
	"revision_parent_id",
	"revision_timestamp",
	"user_type",
	"user_username",
	"user_id",
	"revision_minor",
	"bytes",
}

// RevisionList lists the revisions of every page.
type RevisionList struct {
	onlyLast    bool
	sorted      bool
	changeBytes bool
	log         *slog.Logger
}

// NewRevisionList returns the extract-revisionlist processor. ChangeBytes
// implies EnsureSorted.
func NewRevisionList(cfg types.ExtractConfig, logger *slog.Logger) *RevisionList {
	if logger == nil {
		logger = slog.Default()
	}
	return &RevisionList{
		onlyLast:    cfg.OnlyLastRevision,
		sorted:      cfg.EnsureSorted || cfg.ChangeBytes,
		changeBytes: cfg.ChangeBytes,
		log:         logger,
	}
}

func (p *RevisionList) Name() string { return "extract-revisionlist" }

func (p *RevisionList) Header() []string {
	if p.changeBytes {
		return append(slices.Clone(RevisionListHeader), "change_bytes")
	}
	return RevisionListHeader
}

// Process writes one row per revision of page. The last revision is the
// last one in dump order, chosen before any sorting.
func (p *RevisionList) Process(_ context.Context, page *dump.Page, fw *output.FeatureWriter, stats *types.Stats) error {
	seq := validRevisions(page, p.log)
	if p.onlyLast {
		seq = lastOnly(seq)
	}
	revs := slices.Collect(seq)
	if p.sorted {
		revs = sortedByTime(revs)
	}

	prevBytes := 0
	for i, rev := range revs {
		values := []any{
			page.ID, page.Title,
			rev.ID, rev.ParentID, rev.TimestampString(),
			string(rev.User.Type), rev.User.Name, rev.User.ID,
			rev.MinorFlag(),
			rev.Bytes,
		}
		if p.changeBytes {
			change := rev.Bytes
			if i > 0 {
				change = rev.Bytes - prevBytes
			}
			values = append(values, change)
			prevBytes = rev.Bytes
		}
		if err := fw.Write(values...); err != nil {
			return writeErr(err)
		}
		stats.Performance.RevisionsAnalyzed++
	}
	return nil
}
