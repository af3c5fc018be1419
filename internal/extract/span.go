// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds structural entities in wikitext: sections,
// wikilinks, redirects, "see also" templates, references, and templates.
// Every extractor yields Capture values so callers can recover the exact
// source substring without rescanning the text.
package extract

import "fmt"

// Span is a half-open byte range [Begin, End) into a source string.
type Span struct {
	Begin int `json:"begin" yaml:"begin"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Begin }

// Contains reports whether offset lies within the span.
func (s Span) Contains(offset int) bool {
	return s.Begin <= offset && offset < s.End
}

// Text returns the substring of source covered by the span.
func (s Span) Text(source string) string {
	return source[s.Begin:s.End]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Begin, s.End)
}

// Capture pairs an extracted value with the span it came from.
type Capture[T any] struct {
	Data T    `json:"data" yaml:"data"`
	Span Span `json:"span" yaml:"span"`
}

func newCapture[T any](data T, begin, end int) Capture[T] {
	return Capture[T]{Data: data, Span: Span{Begin: begin, End: end}}
}
