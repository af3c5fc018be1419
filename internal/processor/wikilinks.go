// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/pdiddy/wikidump/internal/dump"
	"github.com/pdiddy/wikidump/internal/extract"
	"github.com/pdiddy/wikidump/internal/guard"
	"github.com/pdiddy/wikidump/internal/output"
	"github.com/pdiddy/wikidump/pkg/types"
)

// WikilinkHeader is the column layout of extract-wikilinks output.
var WikilinkHeader = []string{
	"page_id",
	"page_title",
	"revision_id",
	"revision_parent_id",
	"revision_timestamp",
	"user_type",
	"user_username",
	"user_id",
	"revision_minor",
	"wikilink.link",
	"wikilink.tosection",
	"wikilink.anchor",
	"wikilink.section_name",
	"wikilink.section_level",
	"wikilink.section_number",
}

// Wikilinks writes one row per wikilink per revision.
type Wikilinks struct {
	extractor        *extract.LinkExtractor
	policy           types.TimeoutPolicy
	onlyLastRevision bool
	log              *slog.Logger
}

// NewWikilinks returns the extract-wikilinks processor. Each processor owns
// its guard, so processors must not be shared between goroutines.
func NewWikilinks(cfg types.ExtractConfig, logger *slog.Logger) *Wikilinks {
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.OnTimeout
	if policy == "" {
		policy = types.SkipRest
	}
	return &Wikilinks{
		extractor:        extract.NewLinkExtractor(cfg.RegexTimeout),
		policy:           policy,
		onlyLastRevision: cfg.OnlyLastRevision,
		log:              logger,
	}
}

func (p *Wikilinks) Name() string     { return "extract-wikilinks" }
func (p *Wikilinks) Header() []string { return WikilinkHeader }

// Process extracts the links of every revision of page.
func (p *Wikilinks) Process(ctx context.Context, page *dump.Page, fw *output.FeatureWriter, stats *types.Stats) error {
	revs := validRevisions(page, p.log)
	if p.onlyLastRevision {
		revs = lastOnly(revs)
	}

	for rev := range revs {
		text := extract.RemoveComments(rev.Text)
		links := p.extractor.Wikilinks(ctx, page.Title, text, extract.Sections(text, false))

		outcome := collectLinks(links, p.policy)
		if err := ctx.Err(); err != nil {
			return err
		}

		log := p.log.With("page_id", page.ID, "revision_id", rev.ID)
		for _, gf := range outcome.faults {
			log.Warn("unanticipated wikilink grammar", "offset", gf.Offset, "candidate", gf.Candidate)
		}
		stats.Errors.GrammarFaults += len(outcome.faults)
		if outcome.timeout != nil {
			log.Warn("wikilink resolution timed out", "error", outcome.timeout, "policy", string(p.policy))
			stats.Errors.Timeouts++
		}
		for _, err := range outcome.other {
			log.Error("wikilink extraction failed", "error", err)
		}

		for _, c := range outcome.links {
			wl := c.Data
			if err := fw.Write(
				page.ID, page.Title,
				rev.ID, rev.ParentID, rev.TimestampString(),
				string(rev.User.Type), rev.User.Name, rev.User.ID,
				rev.MinorFlag(),
				wl.Link, wl.ToSection, wl.Anchor,
				wl.SectionName, wl.SectionLevel, wl.SectionNumber,
			); err != nil {
				return writeErr(err)
			}
		}
		stats.Performance.RevisionsAnalyzed++
	}
	return nil
}

// linkOutcome is what one revision's link sequence produced.
type linkOutcome struct {
	links   []extract.Capture[extract.Wikilink]
	faults  []*extract.GrammarFault
	timeout error
	other   []error
}

// collectLinks drains links. Grammar faults are recorded and skipped. The
// first timeout ends the revision: under SkipRest the links found so far
// are kept, under SkipDocument they are dropped.
func collectLinks(links iter.Seq2[extract.Capture[extract.Wikilink], error], policy types.TimeoutPolicy) linkOutcome {
	var out linkOutcome
	for c, err := range links {
		if err == nil {
			out.links = append(out.links, c)
			continue
		}

		var gf *extract.GrammarFault
		switch {
		case errors.As(err, &gf):
			out.faults = append(out.faults, gf)
		case errors.Is(err, guard.ErrTimeout):
			out.timeout = err
			if policy == types.SkipDocument {
				out.links = nil
			}
			return out
		default:
			out.other = append(out.other, err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return out
			}
		}
	}
	return out
}

// lastOnly yields only the final element of seq.
func lastOnly[T any](seq iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		var last T
		found := false
		for v := range seq {
			last, found = v, true
		}
		if found {
			yield(last)
		}
	}
}
