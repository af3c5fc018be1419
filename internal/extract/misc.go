// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"iter"
	"regexp"
	"unicode/utf8"
)

var (
	// commentRe matches HTML comments; an unterminated comment runs to the
	// end of the text.
	commentRe = regexp.MustCompile(`(?s)<!--.*?(?:-->|\z)`)

	// referenceRe matches <ref ...>...</ref> footnotes.
	referenceRe = regexp.MustCompile(`(?is)<ref.*?</ref>`)

	// templateRe matches the innermost-first {{...}} template invocations.
	templateRe = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
)

// RemoveComments strips HTML comments from wikitext. Extractors expect
// comment-free input.
func RemoveComments(text string) string {
	return commentRe.ReplaceAllString(text, "")
}

// References returns the <ref> footnotes of source in document order.
func References(source string) iter.Seq[Capture[string]] {
	return wholeMatches(referenceRe, source)
}

// Templates returns the template invocations of source in document order.
func Templates(source string) iter.Seq[Capture[string]] {
	return wholeMatches(templateRe, source)
}

func wholeMatches(re *regexp.Regexp, source string) iter.Seq[Capture[string]] {
	return func(yield func(Capture[string]) bool) {
		for m := range submatches(re, source) {
			if !yield(newCapture(source[m[0]:m[1]], m[0], m[1])) {
				return
			}
		}
	}
}

// submatches yields the successive non-overlapping submatch indexes of re in
// source, as offsets into source. Matching resumes after each match, so only
// one match is computed per step.
func submatches(re *regexp.Regexp, source string) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		pos := 0
		for pos <= len(source) {
			m := re.FindStringSubmatchIndex(source[pos:])
			if m == nil {
				return
			}
			for i := range m {
				if m[i] >= 0 {
					m[i] += pos
				}
			}
			if !yield(m) {
				return
			}
			pos = m[1]
			if m[1] == m[0] {
				_, size := utf8.DecodeRuneInString(source[pos:])
				pos += max(size, 1)
			}
		}
	}
}

// group returns submatch idx of m in source, or "" when it did not take part.
func group(source string, m []int, idx int) string {
	if idx < 0 || m[2*idx] < 0 {
		return ""
	}
	return source[m[2*idx]:m[2*idx+1]]
}
