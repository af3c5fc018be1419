// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"iter"
	"regexp"
	"strings"
	"sync"
)

// headerDelim is the character whose runs open and close a header line.
const headerDelim = '='

// headerLineRe matches candidate header lines: a line that, ignoring
// horizontal whitespace, starts and ends with the delimiter. The level and
// name are decided by parseHeader.
var headerLineRe = regexp.MustCompile(`(?m)^[^\S\n]*=[^\n]*=[^\S\n]*$`)

// Section is a header-delimited part of a document. Level 0 is reserved for
// the preamble, the text before the first header.
type Section struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level" yaml:"level"`
	Body  string `json:"body" yaml:"body"`

	full *fullBody
}

type fullBody struct {
	once sync.Once
	text string
}

// NewSection returns a section with the given header name, level, and body.
func NewSection(name string, level int, body string) Section {
	return Section{Name: name, Level: level, Body: body, full: &fullBody{}}
}

// IsPreamble reports whether the section is the text before the first header.
func (s Section) IsPreamble() bool {
	return s.Level == 0
}

// FullBody returns the body wrapped by its header line. The preamble's full
// body is its body. The value is computed once and shared by copies of s.
func (s Section) FullBody() string {
	if s.full == nil {
		return s.renderFullBody()
	}
	s.full.once.Do(func() {
		s.full.text = s.renderFullBody()
	})
	return s.full.text
}

func (s Section) renderFullBody() string {
	if s.IsPreamble() {
		return s.Body
	}
	delim := strings.Repeat(string(headerDelim), s.Level)
	var b strings.Builder
	b.Grow(2*len(delim) + len(s.Name) + 1 + len(s.Body))
	b.WriteString(delim)
	b.WriteString(s.Name)
	b.WriteString(delim)
	b.WriteByte('\n')
	b.WriteString(s.Body)
	return b.String()
}

// header is one recognized header line.
type header struct {
	name      string
	level     int
	begin     int // start of the header line
	bodyBegin int // first byte after the header line's line break
}

// parseHeader decides whether the trimmed line is a header. The level is the
// longest delimiter run that appears at both ends while leaving a non-empty
// name between them.
func parseHeader(line string) (name string, level int, ok bool) {
	s := strings.TrimSpace(line)
	lead := len(s) - len(strings.TrimLeft(s, string(headerDelim)))
	trail := len(s) - len(strings.TrimRight(s, string(headerDelim)))
	level = min(lead, trail, (len(s)-1)/2)
	if level < 1 {
		return "", 0, false
	}
	return s[level : len(s)-level], level, true
}

// headerScanner yields header lines in document order, one per call.
type headerScanner struct {
	source string
	pos    int
}

func (h *headerScanner) next() (header, bool) {
	for h.pos <= len(h.source) {
		loc := headerLineRe.FindStringIndex(h.source[h.pos:])
		if loc == nil {
			h.pos = len(h.source) + 1
			return header{}, false
		}
		begin, end := h.pos+loc[0], h.pos+loc[1]
		h.pos = end + 1

		name, level, ok := parseHeader(h.source[begin:end])
		if !ok {
			continue
		}
		return header{
			name:      name,
			level:     level,
			begin:     begin,
			bodyBegin: min(end+1, len(h.source)),
		}, true
	}
	return header{}, false
}

// Sections returns the sections of source in document order. Each section's
// span runs from the start of its header line to the start of the next
// header (or the end of the document); the body excludes the header line and
// the line break that separates it from the next header. When
// includePreamble is true a level-0 section covering the text before the
// first header (or the whole document if there is no header) is yielded
// first, so that the spans partition the document.
func Sections(source string, includePreamble bool) iter.Seq[Capture[Section]] {
	return func(yield func(Capture[Section]) bool) {
		scanner := &headerScanner{source: source}
		cur, ok := scanner.next()

		if includePreamble {
			end := len(source)
			bodyEnd := len(source)
			if ok {
				end = cur.begin
				bodyEnd = max(0, cur.begin-1)
			}
			if !yield(newCapture(NewSection("", 0, source[:bodyEnd]), 0, end)) {
				return
			}
		}

		for ok {
			next, more := scanner.next()

			end := len(source)
			bodyEnd := len(source)
			if more {
				end = next.begin
				bodyEnd = max(cur.bodyBegin, next.begin-1)
			}

			sec := NewSection(cur.name, cur.level, source[cur.bodyBegin:bodyEnd])
			if !yield(newCapture(sec, cur.begin, end)) {
				return
			}
			cur, ok = next, more
		}
	}
}
