// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/wikidump/internal/guard"
)

// --- Candidates ---

func TestCandidates(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []Span
	}{
		{"none", "plain text", nil},
		{"single", "a [[b]] c", []Span{{2, 7}}},
		{"adjacent", "[[a]][[b]]", []Span{{0, 5}, {5, 10}}},
		{"nested restarts at innermost", "[[a]] [[b[[c]] d]]", []Span{{0, 5}, {9, 14}}},
		{"unclosed", "[[never closed", nil},
		{"spans lines", "[[a\nb]]", []Span{{0, 7}}},
		{"triple bracket", "[[[x]]]", []Span{{1, 6}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Candidates(tt.source))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Candidates(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

// --- Widen ---

func TestWiden(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		candidate Span
		want      Span
	}{
		{"spaces on both sides", "foo [[a]]bar baz", Span{4, 9}, Span{4, 12}},
		{"document edges", "x[[a]]y", Span{1, 6}, Span{0, 7}},
		{"newline boundary", "a\n[[b]]\nc", Span{2, 7}, Span{2, 7}},
		{"unicode space", "x\u2003[[y]]", Span{4, 9}, Span{4, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Widen(tt.source, tt.candidate)
			if w.Span != tt.want {
				t.Errorf("Widen = %v, want %v", w.Span, tt.want)
			}
			if w.Candidate != tt.candidate {
				t.Errorf("candidate = %v, want %v", w.Candidate, tt.candidate)
			}
		})
	}
}

// --- Resolve ---

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		window string
		want   Wikilink
		span   Span
		wantOK bool
	}{
		{"plain", "[[Apple]]", Wikilink{Link: "Apple", Anchor: "Apple"}, Span{0, 9}, true},
		{"anchor", "[[Apple|fruit]]", Wikilink{Link: "Apple", Anchor: "fruit"}, Span{0, 15}, true},
		{"section", "[[Apple#History]]", Wikilink{Link: "Apple", ToSection: "History", Anchor: "Apple"}, Span{0, 17}, true},
		{"suffix", "[[apple]]s", Wikilink{Link: "apple", Anchor: "apples"}, Span{0, 10}, true},
		{"prefix", "pre[[fix]]", Wikilink{Link: "fix", Anchor: "prefix"}, Span{0, 10}, true},
		{"trailing punctuation joins anchor", "[[Foo]])", Wikilink{Link: "Foo", Anchor: "Foo)"}, Span{0, 8}, true},
		{"self section", "[[#Top]]", Wikilink{Link: "Page", ToSection: "Top", Anchor: "Page"}, Span{0, 8}, true},
		{"multiline anchor", "[[A|one\n  two]]", Wikilink{Link: "A", Anchor: "one two"}, Span{0, 15}, true},
		{"trimmed link", "[[ Apple ]]", Wikilink{Link: "Apple", Anchor: "Apple"}, Span{0, 11}, true},
		{"empty", "[[]]", Wikilink{}, Span{}, false},
		{"empty with anchor", "[[ |yoda]]", Wikilink{}, Span{}, false},
		{"templated", "[[{{PAGENAME}}]]", Wikilink{}, Span{}, false},
		{"no link", "nothing here", Wikilink{}, Span{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Resolve(tt.window, "Page")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Data != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.window, got.Data, tt.want)
			}
			if got.Span != tt.span {
				t.Errorf("span = %v, want %v", got.Span, tt.span)
			}
		})
	}
}

func TestResolve_GrammarFault(t *testing.T) {
	_, ok, err := Resolve("see [[a\nb]] now", "Page")
	if ok {
		t.Fatal("expected no link")
	}
	if !errors.Is(err, ErrGrammarFault) {
		t.Fatalf("error = %v, want grammar fault", err)
	}
	var gf *GrammarFault
	if !errors.As(err, &gf) {
		t.Fatalf("error %T is not *GrammarFault", err)
	}
	if gf.Offset != 4 || gf.Candidate != "[[a\nb]]" {
		t.Errorf("fault = %+v", gf)
	}
}

func TestResolve_LongTitleIsFault(t *testing.T) {
	window := "[[" + strings.Repeat("x", 257) + "]]"
	_, _, err := Resolve(window, "Page")
	if !errors.Is(err, ErrGrammarFault) {
		t.Errorf("error = %v, want grammar fault", err)
	}
}

// --- Wikilinks ---

const fruitDoc = "See [[Apple]]s here.\n==Fruit==\nThe [[Banana|yellow\nfruit]] and [[#Top]].\n===Citrus===\n[[Lemon#Juice|lemons]]"

func TestWikilinks(t *testing.T) {
	want := []struct {
		link Wikilink
		span Span
	}{
		{Wikilink{Link: "Apple", Anchor: "Apples", SectionName: IncipitName}, Span{4, 14}},
		{Wikilink{Link: "Banana", Anchor: "yellow fruit", SectionName: "Fruit", SectionLevel: 2, SectionNumber: 1}, Span{35, 58}},
		{Wikilink{Link: "Fruits", ToSection: "Top", Anchor: "Fruits.", SectionName: "Fruit", SectionLevel: 2, SectionNumber: 1}, Span{63, 72}},
		{Wikilink{Link: "Lemon", ToSection: "Juice", Anchor: "lemons", SectionName: "Citrus", SectionLevel: 3, SectionNumber: 2}, Span{86, 108}},
	}

	var got []Capture[Wikilink]
	for c, err := range Wikilinks("Fruits", fruitDoc, Sections(fruitDoc, false)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, c)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d links, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Data != w.link {
			t.Errorf("link %d = %+v, want %+v", i, got[i].Data, w.link)
		}
		if got[i].Span != w.span {
			t.Errorf("link %d span = %v, want %v", i, got[i].Span, w.span)
		}
	}
}

func TestWikilinks_SpansRecoverSource(t *testing.T) {
	for c, err := range Wikilinks("Fruits", fruitDoc, Sections(fruitDoc, true)) {
		if err != nil {
			t.Fatal(err)
		}
		text := c.Span.Text(fruitDoc)
		if !strings.Contains(text, "[[") || !strings.Contains(text, "]]") {
			t.Errorf("span %v text %q does not hold a link", c.Span, text)
		}
	}
}

func TestWikilinks_FaultDoesNotStopSequence(t *testing.T) {
	doc := "[[a\nb]] then [[{{tmpl}}]] and [[]] before [[ok]]"

	var links []string
	var faults int
	for c, err := range Wikilinks("P", doc, Sections(doc, false)) {
		if err != nil {
			if !errors.Is(err, ErrGrammarFault) {
				t.Fatalf("unexpected error: %v", err)
			}
			faults++
			continue
		}
		links = append(links, c.Data.Link)
	}

	if faults != 1 {
		t.Errorf("faults = %d, want 1", faults)
	}
	if !slices.Equal(links, []string{"ok"}) {
		t.Errorf("links = %v, want [ok]", links)
	}
}

// Affixes are any non-space, non-bracket text, punctuation included, so
// text between two glued links belongs to both of them.
func TestWikilinks_AffixText(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		anchors []string
		spans   []Span
	}{
		{"closing paren", "(see [[Foo]])", []string{"Foo)"}, []Span{{5, 13}}},
		{"shared between links", "[[a]]b[[c]]d", []string{"ab", "bcd"}, []Span{{0, 6}, {5, 12}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var anchors []string
			var spans []Span
			for c, err := range Wikilinks("P", tt.doc, Sections(tt.doc, false)) {
				if err != nil {
					t.Fatal(err)
				}
				anchors = append(anchors, c.Data.Anchor)
				spans = append(spans, c.Span)
			}
			if !slices.Equal(anchors, tt.anchors) {
				t.Errorf("anchors = %q, want %q", anchors, tt.anchors)
			}
			if !slices.Equal(spans, tt.spans) {
				t.Errorf("spans = %v, want %v", spans, tt.spans)
			}
		})
	}
}

func TestWikilinks_NoDuplicatesForAdjacentLinks(t *testing.T) {
	doc := "[[a]][[b]]"

	var got []Capture[Wikilink]
	for c, err := range Wikilinks("P", doc, Sections(doc, false)) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, c)
	}
	if len(got) != 2 {
		t.Fatalf("got %d links, want 2", len(got))
	}
	if got[0].Data.Anchor != "a" || got[1].Data.Anchor != "b" {
		t.Errorf("anchors = %q, %q", got[0].Data.Anchor, got[1].Data.Anchor)
	}
	if got[0].Span != (Span{0, 5}) || got[1].Span != (Span{5, 10}) {
		t.Errorf("spans = %v, %v", got[0].Span, got[1].Span)
	}
}

func TestWikilinks_Guarded(t *testing.T) {
	e := NewLinkExtractor(time.Second)

	var n int
	for _, err := range e.Wikilinks(context.Background(), "Fruits", fruitDoc, Sections(fruitDoc, false)) {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 4 {
		t.Errorf("got %d links, want 4", n)
	}
}

func TestWikilinks_CancelledContextStops(t *testing.T) {
	e := &LinkExtractor{Guard: guard.New(time.Second)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range e.Wikilinks(ctx, "Fruits", fruitDoc, Sections(fruitDoc, false)) {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Errorf("errors = %v, want a single context.Canceled", errs)
	}
}

// --- Attributor ---

func TestAttributor_Locate(t *testing.T) {
	limits := []SectionLimits{
		{Name: "A", Level: 2, Number: 1, Begin: 10, End: 20},
		{Name: "B", Level: 3, Number: 2, Begin: 20, End: 30},
		{Name: "C", Level: 2, Number: 3, Begin: 30, End: 40},
	}
	a := NewAttributor(limits)

	for _, tt := range []struct {
		offset int
		want   int
	}{
		{0, 0}, {5, 0}, {10, 1}, {19, 1}, {25, 2}, {25, 2}, {39, 3}, {40, 3},
	} {
		if got := a.Locate(tt.offset); got.Number != tt.want {
			t.Errorf("Locate(%d) = section %d, want %d", tt.offset, got.Number, tt.want)
		}
	}
}

func TestAttributor_NoSections(t *testing.T) {
	a := NewAttributor(nil)
	got := a.Locate(42)
	if got.Name != IncipitName || got.Number != 0 || got.Level != 0 {
		t.Errorf("Locate = %+v, want incipit", got)
	}
}

func TestBuildSectionLimits(t *testing.T) {
	limits := BuildSectionLimits(Sections(historyDoc, true))
	if len(limits) != 3 {
		t.Fatalf("got %d limits, want 3", len(limits))
	}
	for i, l := range limits {
		if l.Number != i+1 {
			t.Errorf("limit %d number = %d", i, l.Number)
		}
	}
	if limits[1].Name != " Early " || limits[1].Begin != 36 || limits[1].End != 60 {
		t.Errorf("second limit = %+v", limits[1])
	}
}
