// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/xml"
	"time"
)

// Stats is the per-file run report written next to each features file.
type Stats struct {
	XMLName     xml.Name    `xml:"stats" json:"-" yaml:"-"`
	RunID       string      `xml:"run_id,attr" json:"run_id" yaml:"run_id"`
	Processor   string      `xml:"processor,attr" json:"processor" yaml:"processor"`
	Input       string      `xml:"input,attr" json:"input" yaml:"input"`
	Performance Performance `xml:"performance" json:"performance" yaml:"performance"`
	Errors      ErrorCounts `xml:"errors" json:"errors" yaml:"errors"`
}

// Performance counts the work done by a run.
type Performance struct {
	StartTime         time.Time `xml:"start_time" json:"start_time" yaml:"start_time"`
	EndTime           time.Time `xml:"end_time" json:"end_time" yaml:"end_time"`
	RevisionsAnalyzed int       `xml:"revisions_analyzed" json:"revisions_analyzed" yaml:"revisions_analyzed"`
	PagesAnalyzed     int       `xml:"pages_analyzed" json:"pages_analyzed" yaml:"pages_analyzed"`
	PagesSkipped      int       `xml:"pages_skipped" json:"pages_skipped" yaml:"pages_skipped"`
	RowsWritten       int       `xml:"rows_written" json:"rows_written" yaml:"rows_written"`
}

// ErrorCounts counts the per-candidate and per-document failures a run
// tolerated.
type ErrorCounts struct {
	GrammarFaults int `xml:"grammar_faults" json:"grammar_faults" yaml:"grammar_faults"`
	Timeouts      int `xml:"timeouts" json:"timeouts" yaml:"timeouts"`
}

// Duration returns the wall-clock length of the run.
func (s Stats) Duration() time.Duration {
	return s.Performance.EndTime.Sub(s.Performance.StartTime)
}
