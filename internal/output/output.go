// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output creates the features and stats files written by the dump
// processors.
package output

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/pdiddy/wikidump/pkg/types"
)

const (
	featuresSuffix = ".features.csv"
	statsSuffix    = ".stats.xml"
)

// FeaturesName returns the features file name for an input dump, before
// any compression suffix.
func FeaturesName(input string) string {
	return filepath.Base(input) + featuresSuffix
}

// StatsName returns the stats file name for an input dump, before any
// compression suffix.
func StatsName(input string) string {
	return filepath.Base(input) + statsSuffix
}

// File is an output file. Close flushes the codec before closing the file.
type File struct {
	io.Writer
	Path string

	closers []io.Closer
	closed  bool
}

// Close flushes and closes the file. Closing a dry-run file, or closing
// twice, is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Create opens dir/name for writing with the configured codec, appending
// the codec's suffix to the name. With DryRun set nothing is created and
// everything written is discarded.
func Create(cfg types.OutputConfig, name string) (*File, error) {
	if cfg.DryRun {
		return &File{Writer: io.Discard, Path: os.DevNull}, nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name+cfg.Compression.Suffix())
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	switch cfg.Compression {
	case types.CompressionNone:
		return &File{Writer: f, Path: path, closers: []io.Closer{f}}, nil
	case types.CompressionGzip:
		gzw := gzip.NewWriter(f)
		return &File{Writer: gzw, Path: path, closers: []io.Closer{gzw, f}}, nil
	case types.CompressionXZ:
		xzw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return &File{Writer: xzw, Path: path, closers: []io.Closer{xzw, f}}, nil
	default:
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("unsupported output compression %q", cfg.Compression)
	}
}

// Open opens a file written by Create, decompressing by suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case types.CompressionGzip.Suffix():
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &readFile{Reader: gzr, closers: []io.Closer{gzr, f}}, nil
	case types.CompressionXZ.Suffix():
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &readFile{Reader: xzr, closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

type readFile struct {
	io.Reader
	closers []io.Closer
}

func (r *readFile) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FeatureWriter writes CSV feature rows under a fixed header.
type FeatureWriter struct {
	w      *csv.Writer
	fields int
	rows   int
}

// NewFeatureWriter writes header to w and returns a writer for the rows
// that follow.
func NewFeatureWriter(w io.Writer, header ...string) (*FeatureWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &FeatureWriter{w: cw, fields: len(header)}, nil
}

// Write formats values and appends them as one row. The number of values
// must match the header.
func (fw *FeatureWriter) Write(values ...any) error {
	if len(values) != fw.fields {
		return fmt.Errorf("row has %d fields, header has %d", len(values), fw.fields)
	}
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = formatField(v)
	}
	if err := fw.w.Write(record); err != nil {
		return err
	}
	fw.rows++
	return nil
}

// Rows returns the number of rows written after the header.
func (fw *FeatureWriter) Rows() int { return fw.rows }

// Flush writes buffered rows to the underlying writer.
func (fw *FeatureWriter) Flush() error {
	fw.w.Flush()
	return fw.w.Error()
}

func formatField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// WriteStats writes s as an indented XML document.
func WriteStats(w io.Writer, s types.Stats) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
