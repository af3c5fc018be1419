// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "iter"

// IncipitName is the section name reported for matches that precede the
// first header.
const IncipitName = "---~--- incipit ---~---"

// SectionLimits is the positional index entry of one section. Number is the
// 1-based position of the section in document order; 0 is the incipit.
type SectionLimits struct {
	Name   string
	Level  int
	Number int
	Begin  int
	End    int
}

// incipit is the sentinel entry for content before the first header.
var incipit = SectionLimits{Name: IncipitName}

// BuildSectionLimits numbers the header sections of a completed section
// sequence. Preamble sections are skipped so numbering starts at the first
// header.
func BuildSectionLimits(sections iter.Seq[Capture[Section]]) []SectionLimits {
	var limits []SectionLimits
	for c := range sections {
		if c.Data.IsPreamble() {
			continue
		}
		limits = append(limits, SectionLimits{
			Name:   c.Data.Name,
			Level:  c.Data.Level,
			Number: len(limits) + 1,
			Begin:  c.Span.Begin,
			End:    c.Span.End,
		})
	}
	return limits
}

// Attributor maps match offsets to their owning section. Offsets must be
// presented in non-decreasing order: the scan resumes from the section found
// for the previous offset and never moves backwards.
type Attributor struct {
	limits []SectionLimits
	last   int
}

// NewAttributor returns an attributor over limits, which must be in
// document order and is not modified.
func NewAttributor(limits []SectionLimits) *Attributor {
	return &Attributor{limits: limits}
}

// Locate returns the section containing offset, or the incipit sentinel when
// offset precedes the first header.
func (a *Attributor) Locate(offset int) SectionLimits {
	if len(a.limits) == 0 || offset < a.limits[0].Begin {
		return incipit
	}
	for i := a.last; i < len(a.limits); i++ {
		sec := a.limits[i]
		// The last section also owns offsets at or past its end, which only
		// happens for the end-of-document position.
		if offset < sec.End || i == len(a.limits)-1 {
			a.last = i
			return sec
		}
	}
	return incipit
}
