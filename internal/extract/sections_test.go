// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"testing"
)

const historyDoc = "Intro text\n== History ==\nOld times.\n=== Early ===\nVery old.\n== See also ==\n* [[Foo]]"

func collectSections(source string, includePreamble bool) []Capture[Section] {
	var out []Capture[Section]
	for c := range Sections(source, includePreamble) {
		out = append(out, c)
	}
	return out
}

// --- parseHeader ---

func TestParseHeader(t *testing.T) {
	tests := []struct {
		line      string
		wantName  string
		wantLevel int
		wantOK    bool
	}{
		{"== History ==", " History ", 2, true},
		{"==History==", "History", 2, true},
		{"=== Early ===", " Early ", 3, true},
		{"  ==Padded==  ", "Padded", 2, true},
		{"=Top=", "Top", 1, true},
		{"===Uneven==", "=Uneven", 2, true},
		{"==A=B==", "A=B", 2, true},
		{"=====", "=", 2, true},
		{"==", "", 0, false},
		{"=", "", 0, false},
		{"plain text", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, level, ok := parseHeader(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if name != tt.wantName || level != tt.wantLevel {
				t.Errorf("parseHeader(%q) = (%q, %d), want (%q, %d)", tt.line, name, level, tt.wantName, tt.wantLevel)
			}
		})
	}
}

// --- Sections ---

func TestSections_WithPreamble(t *testing.T) {
	got := collectSections(historyDoc, true)

	want := []struct {
		name  string
		level int
		body  string
		span  Span
	}{
		{"", 0, "Intro text", Span{0, 11}},
		{" History ", 2, "Old times.", Span{11, 36}},
		{" Early ", 3, "Very old.", Span{36, 60}},
		{" See also ", 2, "* [[Foo]]", Span{60, 84}},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d sections, want %d", len(got), len(want))
	}
	for i, w := range want {
		c := got[i]
		if c.Data.Name != w.name || c.Data.Level != w.level || c.Data.Body != w.body {
			t.Errorf("section %d = (%q, %d, %q), want (%q, %d, %q)",
				i, c.Data.Name, c.Data.Level, c.Data.Body, w.name, w.level, w.body)
		}
		if c.Span != w.span {
			t.Errorf("section %d span = %v, want %v", i, c.Span, w.span)
		}
	}
}

func TestSections_WithoutPreamble(t *testing.T) {
	got := collectSections(historyDoc, false)
	if len(got) != 3 {
		t.Fatalf("got %d sections, want 3", len(got))
	}
	if got[0].Data.IsPreamble() {
		t.Error("first section should be a header section")
	}
	if got[0].Span.Begin != 11 {
		t.Errorf("first span begins at %d, want 11", got[0].Span.Begin)
	}
}

func TestSections_NoHeaders(t *testing.T) {
	doc := "just some text\nwith two lines"

	got := collectSections(doc, true)
	if len(got) != 1 {
		t.Fatalf("got %d sections, want 1", len(got))
	}
	if got[0].Data.Body != doc || got[0].Span != (Span{0, len(doc)}) {
		t.Errorf("preamble = %q %v, want whole document", got[0].Data.Body, got[0].Span)
	}

	if n := len(collectSections(doc, false)); n != 0 {
		t.Errorf("got %d header sections, want 0", n)
	}
}

func TestSections_HeaderAtStart(t *testing.T) {
	doc := "==A==\nalpha\n==B==\n"

	got := collectSections(doc, true)
	if len(got) != 3 {
		t.Fatalf("got %d sections, want 3", len(got))
	}
	if got[0].Span != (Span{0, 0}) || got[0].Data.Body != "" {
		t.Errorf("preamble = %q %v, want empty", got[0].Data.Body, got[0].Span)
	}
	if got[1].Data.Body != "alpha" {
		t.Errorf("A body = %q, want %q", got[1].Data.Body, "alpha")
	}
	if got[2].Data.Name != "B" || got[2].Data.Body != "" {
		t.Errorf("B = (%q, %q), want (B, \"\")", got[2].Data.Name, got[2].Data.Body)
	}
}

func TestSections_SpansPartitionDocument(t *testing.T) {
	docs := []string{
		historyDoc,
		"",
		"no headers at all",
		"==Only==",
		"==One==\n==Two==\n==Three==",
		"lead\n\n  == Indented ==  \nbody\n==Last==\ntail\n",
		"==Ünïcode==\nкириллица\n===日本===\n語",
	}

	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			var b strings.Builder
			prev := 0
			for c := range Sections(doc, true) {
				if c.Span.Begin != prev {
					t.Fatalf("span %v does not start at %d", c.Span, prev)
				}
				b.WriteString(c.Span.Text(doc))
				prev = c.Span.End
			}
			if b.String() != doc {
				t.Errorf("concatenated spans = %q, want %q", b.String(), doc)
			}
		})
	}
}

func TestSections_EarlyStop(t *testing.T) {
	n := 0
	for range Sections(historyDoc, true) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("pulled %d sections, want 2", n)
	}
}

// --- FullBody ---

func TestSection_FullBody(t *testing.T) {
	got := collectSections(historyDoc, true)

	if fb := got[0].Data.FullBody(); fb != "Intro text" {
		t.Errorf("preamble full body = %q", fb)
	}
	if fb := got[1].Data.FullBody(); fb != "== History ==\nOld times." {
		t.Errorf("History full body = %q", fb)
	}
	if fb := got[2].Data.FullBody(); fb != "=== Early ===\nVery old." {
		t.Errorf("Early full body = %q", fb)
	}
}

func TestSection_FullBodyIdempotent(t *testing.T) {
	sec := NewSection("Name", 2, "body")
	first := sec.FullBody()

	cp := sec
	if second := cp.FullBody(); second != first {
		t.Errorf("copy full body = %q, want %q", second, first)
	}
	if third := sec.FullBody(); third != first {
		t.Errorf("repeat full body = %q, want %q", third, first)
	}

	var zero Section
	zero.Name, zero.Level, zero.Body = "Z", 1, "z"
	if fb := zero.FullBody(); fb != "=Z=\nz" {
		t.Errorf("zero-value section full body = %q", fb)
	}
}
