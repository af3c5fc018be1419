// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Compression selects the codec applied to output files.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionXZ   Compression = "xz"
)

// Suffix returns the file-name suffix for the codec ("" for none).
func (c Compression) Suffix() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// OutputConfig holds settings shared by every processor that writes files.
type OutputConfig struct {
	// Dir is the directory that receives features and stats files
	// (default "output").
	Dir string `json:"dir" yaml:"dir"`

	// Compression selects the output codec: "", "gzip", or "xz".
	Compression Compression `json:"compression" yaml:"compression"`

	// DryRun discards all output.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// TimeoutPolicy decides what a processor does with a document after one of
// its link resolutions times out.
type TimeoutPolicy string

const (
	// SkipDocument drops every link of the revision that timed out.
	SkipDocument TimeoutPolicy = "skip-document"

	// SkipRest keeps the links found before the timeout and stops there.
	SkipRest TimeoutPolicy = "skip-rest"
)

// ExtractConfig holds settings for the dump processors.
type ExtractConfig struct {
	// Language is the wiki language code (e.g. "en"). Redirect detection
	// fails for languages without a magic-word table.
	Language string `json:"language" yaml:"language"`

	// LanguagesFile optionally overlays the built-in magic-word table.
	LanguagesFile string `json:"languages_file,omitempty" yaml:"languages_file,omitempty"`

	// RegexTimeout bounds each link resolution (default 5s).
	RegexTimeout time.Duration `json:"regex_timeout" yaml:"regex_timeout"`

	// OnTimeout is the policy applied after a timeout (default skip-rest).
	OnTimeout TimeoutPolicy `json:"on_timeout" yaml:"on_timeout"`

	// OnlyLastRevision restricts revision listing to each page's last
	// revision.
	OnlyLastRevision bool `json:"only_last_revision" yaml:"only_last_revision"`

	// EnsureSorted sorts each page's revisions by timestamp before writing.
	EnsureSorted bool `json:"ensure_sorted" yaml:"ensure_sorted"`

	// ChangeBytes adds the byte delta from the previous revision. It
	// implies EnsureSorted.
	ChangeBytes bool `json:"change_bytes" yaml:"change_bytes"`
}

// StoreConfig holds settings for the link index.
type StoreConfig struct {
	// Dir is the base directory of the index (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LoggingConfig selects the structured log handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is "text" or "json" (default text).
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all configuration sections.
type PipelineConfig struct {
	Output  OutputConfig  `json:"output" yaml:"output"`
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}
