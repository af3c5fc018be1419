// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"context"
	"log/slog"
	"slices"

	"github.com/pdiddy/wikidump/internal/dump"
	"github.com/pdiddy/wikidump/internal/extract"
	"github.com/pdiddy/wikidump/internal/output"
	"github.com/pdiddy/wikidump/pkg/types"
)

// NoRedirect is the target written when a page stops being a redirect.
const NoRedirect = "#NOREDIRECT"

// RedirectHeader is the column layout of extract-redirects output.
var RedirectHeader = []string{
	"page_id",
	"page_title",
	"revision_id",
	"revision_parent_id",
	"revision_timestamp",
	"revision_minor",
	"redirect.target",
	"redirect.tosection",
}

// Redirects tracks redirects across the revision history of each page.
type Redirects struct {
	grammars *extract.Grammars
	language string
	log      *slog.Logger
}

// NewRedirects returns the extract-redirects processor for language. It
// fails when language has no redirect magic words, before any dump is read.
func NewRedirects(grammars *extract.Grammars, language string, logger *slog.Logger) (*Redirects, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if grammars == nil {
		grammars = extract.DefaultGrammars()
	}
	if _, err := grammars.Redirects("", language); err != nil {
		return nil, err
	}
	return &Redirects{grammars: grammars, language: language, log: logger}, nil
}

func (p *Redirects) Name() string     { return "extract-redirects" }
func (p *Redirects) Header() []string { return RedirectHeader }

// Process walks the revisions of page in time order. Every redirect of a
// revision yields a row; a revision without a redirect that follows one
// with a redirect yields a NoRedirect row.
func (p *Redirects) Process(_ context.Context, page *dump.Page, fw *output.FeatureWriter, stats *types.Stats) error {
	revs := sortedByTime(slices.Collect(validRevisions(page, p.log)))

	hadRedirect := false
	for _, rev := range revs {
		text := extract.RemoveComments(rev.Text)
		seq, err := p.grammars.Redirects(text, p.language)
		if err != nil {
			return err
		}

		row := func(target, tosection string) error {
			return fw.Write(
				page.ID, page.Title,
				rev.ID, rev.ParentID, rev.TimestampString(),
				rev.MinorFlag(),
				target, tosection,
			)
		}

		hasRedirect := false
		for c := range seq {
			hasRedirect = true
			if err := row(c.Data.Target, c.Data.ToSection); err != nil {
				return writeErr(err)
			}
		}
		if !hasRedirect && hadRedirect {
			if err := row(NoRedirect, ""); err != nil {
				return writeErr(err)
			}
		}
		hadRedirect = hasRedirect
		stats.Performance.RevisionsAnalyzed++
	}
	return nil
}
