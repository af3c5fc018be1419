// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/wikidump/internal/guard"
)

// Wikilink is an internal cross-reference with the section it was found in.
type Wikilink struct {
	Link          string `json:"link" yaml:"link"`
	ToSection     string `json:"tosection" yaml:"tosection"`
	Anchor        string `json:"anchor" yaml:"anchor"`
	SectionName   string `json:"section_name" yaml:"section_name"`
	SectionLevel  int    `json:"section_level" yaml:"section_level"`
	SectionNumber int    `json:"section_number" yaml:"section_number"`
}

// wikilinkRe is the full link grammar, anchored at the start of the affix
// run that precedes the link.
//
// The link group holds the page title: at most 256 characters, none of
// them a newline, pipe, bracket, angle bracket or brace. The '#' section
// separator is allowed and split off later. The optional anchor after the
// pipe may span lines but cannot contain an open bracket. Affixes are runs
// of non-space, non-bracket text glued to either side: [[apple]]s renders
// as "apples".
var wikilinkRe = regexp.MustCompile(`^(?P<total>` +
	`(?P<prefix>[^\s\[\]]*)` +
	`(?P<wikilink>\[\[` +
	`(?P<link>[^\n|\[\]<>{}]{0,256})` +
	`(?:\|(?P<anchor>[^\[]*?))?` +
	`\]\])` +
	`(?P<suffix>[^\s\[\]]*))`)

var (
	reTotal    = wikilinkRe.SubexpIndex("total")
	rePrefix   = wikilinkRe.SubexpIndex("prefix")
	reWikilink = wikilinkRe.SubexpIndex("wikilink")
	reLink     = wikilinkRe.SubexpIndex("link")
	reAnchor   = wikilinkRe.SubexpIndex("anchor")
	reSuffix   = wikilinkRe.SubexpIndex("suffix")
)

// templatedChars mark bracket contents that are nested or templated markup
// rather than a plain link. A grammar mismatch on such a candidate is
// expected and skipped silently.
const templatedChars = "|<>{}"

// ErrGrammarFault matches every GrammarFault with errors.Is.
var ErrGrammarFault = errors.New("unanticipated wikilink grammar")

// GrammarFault reports a bracket pair the link grammar rejects for no known
// reason. It carries enough context to reproduce the failure offline.
type GrammarFault struct {
	Offset    int    // start of the bracket pair in the source
	Candidate string // the bracket pair
	Window    string // the widened window handed to the grammar
}

func (e *GrammarFault) Error() string {
	return fmt.Sprintf("wikilink grammar mismatch at offset %d: %q", e.Offset, e.Candidate)
}

// Unwrap lets errors.Is(err, ErrGrammarFault) match.
func (e *GrammarFault) Unwrap() error { return ErrGrammarFault }

// Candidates returns the minimal [[...]] spans of source in document order.
// A candidate ends at the first "]]" after its "[[" and contains no other
// "[[". No grammar is applied.
func Candidates(source string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		pos := 0
		for {
			open := strings.Index(source[pos:], "[[")
			if open < 0 {
				return
			}
			open += pos

			closeRel := strings.Index(source[open+2:], "]]")
			if closeRel < 0 {
				return
			}
			end := open + 2 + closeRel + 2

			// Restart from the innermost "[[" before the closing pair.
			if inner := strings.LastIndex(source[open+1:end-2], "[["); inner >= 0 {
				open = open + 1 + inner
			}

			if !yield(Span{Begin: open, End: end}) {
				return
			}
			pos = end
		}
	}
}

// Window is a candidate widened to the surrounding non-space text.
type Window struct {
	Span
	Candidate Span
}

// Widen extends the candidate left to just after the nearest preceding
// whitespace (or the document start) and right to just before the nearest
// following whitespace (or the document end).
func Widen(source string, candidate Span) Window {
	begin := 0
	if i := strings.LastIndexFunc(source[:candidate.Begin], unicode.IsSpace); i >= 0 {
		_, size := utf8.DecodeRuneInString(source[i:])
		begin = i + size
	}
	end := len(source)
	if i := strings.IndexFunc(source[candidate.End:], unicode.IsSpace); i >= 0 {
		end = candidate.End + i
	}
	return Window{Span: Span{Begin: begin, End: end}, Candidate: candidate}
}

// resolution is the outcome of applying the grammar to one window.
type resolution int

const (
	resolved resolution = iota
	skippedTemplated
	skippedEmpty
)

// affixStart returns the start of the run of non-space, non-bracket text
// that ends at the candidate, bounded by the window.
func affixStart(source string, w Window) int {
	i := w.Candidate.Begin
	for i > w.Begin {
		r, size := utf8.DecodeLastRuneInString(source[:i])
		if unicode.IsSpace(r) || r == '[' || r == ']' {
			break
		}
		i -= size
	}
	return i
}

// resolveWindow applies the full grammar to w. Offsets in the result are
// source offsets. Section fields are left for the caller.
func resolveWindow(ctx context.Context, source, pageTitle string, w Window) (Capture[Wikilink], resolution, error) {
	start := affixStart(source, w)
	text := source[start:w.End]

	if err := ctx.Err(); err != nil {
		return Capture[Wikilink]{}, 0, err
	}
	m := wikilinkRe.FindStringSubmatchIndex(text)
	if m == nil || start+m[2*reWikilink] != w.Candidate.Begin {
		return grammarMismatch(source, w)
	}
	if err := ctx.Err(); err != nil {
		return Capture[Wikilink]{}, 0, err
	}

	link := strings.TrimSpace(group(text, m, reLink))
	var tosection string
	if page, section, found := strings.Cut(link, "#"); found {
		tosection = section
		link = page
		if link == "" {
			link = pageTitle
		}
	}

	anchor := group(text, m, reAnchor)
	if anchor == "" {
		anchor = link
	}
	anchor = normalizeAnchor(anchor)
	anchor = group(text, m, rePrefix) + anchor + group(text, m, reSuffix)

	// Broken residue such as [[]] or [[ |yoda]].
	if link == "" {
		return Capture[Wikilink]{}, skippedEmpty, nil
	}

	wl := Wikilink{
		Link:      link,
		ToSection: tosection,
		Anchor:    anchor,
	}
	return newCapture(wl, start+m[2*reTotal], start+m[2*reTotal+1]), resolved, nil
}

// grammarMismatch classifies a candidate the grammar rejected.
func grammarMismatch(source string, w Window) (Capture[Wikilink], resolution, error) {
	raw := w.Candidate.Text(source)
	inner := strings.TrimRight(strings.TrimLeft(strings.TrimSpace(raw), "["), "]")
	if strings.ContainsAny(inner, templatedChars) {
		return Capture[Wikilink]{}, skippedTemplated, nil
	}
	return Capture[Wikilink]{}, 0, &GrammarFault{
		Offset:    w.Candidate.Begin,
		Candidate: raw,
		Window:    w.Text(source),
	}
}

// normalizeAnchor renders newlines as spaces and collapses whitespace runs.
func normalizeAnchor(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolve applies the full link grammar to the first link in window, using
// pageTitle for self-section references such as [[#History]]. It reports
// false when the window holds no link or only skippable residue. Spans are
// offsets into window; section fields are unset.
func Resolve(window, pageTitle string) (Capture[Wikilink], bool, error) {
	for cand := range Candidates(window) {
		c, res, err := resolveWindow(context.Background(), window, pageTitle, Widen(window, cand))
		if err != nil {
			return Capture[Wikilink]{}, false, err
		}
		return c, res == resolved, nil
	}
	return Capture[Wikilink]{}, false, nil
}

// LinkExtractor runs the two-pass link extraction over documents. The zero
// value resolves every window without a deadline.
type LinkExtractor struct {
	// Guard bounds each window's resolution. Nil disables the deadline.
	Guard *guard.Guard
}

// NewLinkExtractor returns an extractor whose window resolutions are bounded
// by timeout. A non-positive timeout uses guard.DefaultTimeout.
func NewLinkExtractor(timeout time.Duration) *LinkExtractor {
	return &LinkExtractor{Guard: guard.New(timeout)}
}

type resolvedLink struct {
	capture Capture[Wikilink]
	res     resolution
}

// Wikilinks returns the wikilinks of source in document order, each
// attributed to its section. The coarse scanner proposes candidates, each is
// widened and resolved under the guard, then attributed using the header
// sections in sections.
//
// Grammar faults and timeouts are yielded as errors without stopping the
// sequence; the consumer decides whether to keep pulling. Templated markup
// and empty links are skipped silently.
func (e *LinkExtractor) Wikilinks(ctx context.Context, pageTitle, source string, sections iter.Seq[Capture[Section]]) iter.Seq2[Capture[Wikilink], error] {
	return func(yield func(Capture[Wikilink], error) bool) {
		attributor := NewAttributor(BuildSectionLimits(sections))

		for cand := range Candidates(source) {
			w := Widen(source, cand)

			out, err := guard.Run(ctx, e.Guard, "wikilink resolution", func(ctx context.Context) (resolvedLink, error) {
				c, res, err := resolveWindow(ctx, source, pageTitle, w)
				return resolvedLink{capture: c, res: res}, err
			})
			if err != nil {
				if ctx.Err() != nil {
					yield(Capture[Wikilink]{}, err)
					return
				}
				if !yield(Capture[Wikilink]{}, err) {
					return
				}
				continue
			}
			if out.res != resolved {
				continue
			}

			sec := attributor.Locate(out.capture.Span.Begin)
			out.capture.Data.SectionName = sec.Name
			out.capture.Data.SectionLevel = sec.Level
			out.capture.Data.SectionNumber = sec.Number

			if !yield(out.capture, nil) {
				return
			}
		}
	}
}

// Wikilinks extracts the wikilinks of source without a deadline.
func Wikilinks(pageTitle, source string, sections iter.Seq[Capture[Section]]) iter.Seq2[Capture[Wikilink], error] {
	var e LinkExtractor
	return e.Wikilinks(context.Background(), pageTitle, source, sections)
}
