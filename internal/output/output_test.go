// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/pdiddy/wikidump/pkg/types"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "enwiki.xml.bz2.features.csv", FeaturesName("/data/enwiki.xml.bz2"))
	assert.Equal(t, "enwiki.xml.bz2.stats.xml", StatsName("/data/enwiki.xml.bz2"))
}

func TestCreate_Compression(t *testing.T) {
	tests := []struct {
		compression types.Compression
		wantSuffix  string
		open        func(io.Reader) (io.Reader, error)
	}{
		{types.CompressionNone, "", func(r io.Reader) (io.Reader, error) { return r, nil }},
		{types.CompressionGzip, ".gz", func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }},
		{types.CompressionXZ, ".xz", func(r io.Reader) (io.Reader, error) { return xz.NewReader(r) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.compression)+"codec", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			f, err := Create(types.OutputConfig{Dir: dir, Compression: tt.compression}, "x.features.csv")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "x.features.csv"+tt.wantSuffix), f.Path)

			_, err = io.WriteString(f, "hello\n")
			require.NoError(t, err)
			require.NoError(t, f.Close())

			raw, err := os.Open(f.Path)
			require.NoError(t, err)
			defer raw.Close()
			r, err := tt.open(raw)
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "hello\n", string(data))
		})
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	for _, c := range []types.Compression{types.CompressionNone, types.CompressionGzip, types.CompressionXZ} {
		dir := t.TempDir()
		f, err := Create(types.OutputConfig{Dir: dir, Compression: c}, "rows.csv")
		require.NoError(t, err)
		_, err = io.WriteString(f, "a,b\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		r, err := Open(f.Path)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, "a,b\n", string(data), "compression %q", c)
	}
}

func TestCreate_DryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	f, err := Create(types.OutputConfig{Dir: dir, DryRun: true}, "x.csv")
	require.NoError(t, err)

	_, err = io.WriteString(f, "discarded")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "dry run must not create the output directory")
}

func TestCreate_UnknownCompression(t *testing.T) {
	_, err := Create(types.OutputConfig{Dir: t.TempDir(), Compression: "7z"}, "x.csv")
	assert.Error(t, err)
}

func TestFeatureWriter(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFeatureWriter(&buf, "page_id", "title", "minor", "when")
	require.NoError(t, err)

	when := time.Date(2001, 1, 15, 13, 15, 0, 0, time.UTC)
	require.NoError(t, fw.Write(int64(12), "Apple, the fruit", true, when))
	require.NoError(t, fw.Write(13, "Pear", false, when))
	require.Error(t, fw.Write("too", "few"))
	require.NoError(t, fw.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"page_id,title,minor,when",
		`12,"Apple, the fruit",1,2001-01-15T13:15:00Z`,
		"13,Pear,0,2001-01-15T13:15:00Z",
	}, lines)
	assert.Equal(t, 2, fw.Rows())
}

func TestWriteStats(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := types.Stats{
		RunID:     "run-1",
		Processor: "extract-wikilinks",
		Input:     "dump.xml",
		Performance: types.Performance{
			StartTime:         start,
			EndTime:           start.Add(time.Minute),
			RevisionsAnalyzed: 5,
			PagesAnalyzed:     2,
		},
		Errors: types.ErrorCounts{GrammarFaults: 1, Timeouts: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, s))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))
	assert.Contains(t, buf.String(), "<revisions_analyzed>5</revisions_analyzed>")

	var got types.Stats
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Errors.Timeouts)
	assert.Equal(t, time.Minute, got.Duration())
}
