// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dump streams pages and revisions out of MediaWiki XML exports.
// Only one page is held in memory at a time; compressed inputs are
// decompressed on the fly.
package dump

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/ulikunitz/xz"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/wikidump/pkg/types"
)

// pageXPath selects the streamed element.
const pageXPath = "/mediawiki/page"

var (
	titleExpr       = xpath.MustCompile("title")
	nsExpr          = xpath.MustCompile("ns")
	idExpr          = xpath.MustCompile("id")
	revisionExpr    = xpath.MustCompile("revision")
	parentIDExpr    = xpath.MustCompile("parentid")
	timestampExpr   = xpath.MustCompile("timestamp")
	contributorExpr = xpath.MustCompile("contributor")
	usernameExpr    = xpath.MustCompile("username")
	ipExpr          = xpath.MustCompile("ip")
	minorExpr       = xpath.MustCompile("minor")
	commentExpr     = xpath.MustCompile("comment")
	modelExpr       = xpath.MustCompile("model")
	formatExpr      = xpath.MustCompile("format")
	textExpr        = xpath.MustCompile("text")
)

// ErrUnsupportedFormat is returned by Open for inputs it cannot decompress.
var ErrUnsupportedFormat = errors.New("unsupported dump format")

// Reader streams pages from one dump.
type Reader struct {
	parser  *xmlquery.StreamParser
	closers []io.Closer
}

// Open opens the dump at path, choosing a decompressor from the file
// suffix: .gz, .bz2, .xz, or none for plain XML.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}

	var src io.Reader = bufio.NewReaderSize(f, 1<<20)
	closers := []io.Closer{f}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gzr, err := gzip.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		src = gzr
		closers = append([]io.Closer{gzr}, closers...)
	case ".bz2":
		src = bzip2.NewReader(src)
	case ".xz":
		xzr, err := xz.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		src = xzr
	case ".xml", "":
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	r, err := NewReader(src)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	r.closers = closers
	return r, nil
}

// NewReader streams pages from uncompressed XML read from src. The caller
// owns src.
func NewReader(src io.Reader) (*Reader, error) {
	p, err := xmlquery.CreateStreamParser(src, pageXPath)
	if err != nil {
		return nil, fmt.Errorf("creating stream parser: %w", err)
	}
	return &Reader{parser: p}, nil
}

// Close releases the decompressors and the underlying file.
func (r *Reader) Close() error {
	return closeAll(r.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Next returns the next page, or io.EOF after the last one. The returned
// page stays valid after later calls.
func (r *Reader) Next() (*Page, error) {
	n, err := r.parser.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return parsePage(n)
}

// Pages returns the remaining pages in dump order. A read error is yielded
// once and ends the sequence.
func (r *Reader) Pages() iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		for {
			p, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Page is one page with its not-yet-decoded revisions.
type Page struct {
	types.Page
	revisions []*xmlquery.Node
}

// RevisionCount returns the number of revisions of the page.
func (p *Page) RevisionCount() int {
	return len(p.revisions)
}

// Revisions decodes the revisions of p in dump order. A malformed revision
// is yielded as an error and the sequence continues.
func (p *Page) Revisions() iter.Seq2[types.Revision, error] {
	return func(yield func(types.Revision, error) bool) {
		for _, n := range p.revisions {
			rev, err := parseRevision(n)
			if err != nil {
				err = fmt.Errorf("page %d: %w", p.ID, err)
			}
			if !yield(rev, err) {
				return
			}
		}
	}
}

func parsePage(n *xmlquery.Node) (*Page, error) {
	id, err := intField(n, idExpr)
	if err != nil {
		return nil, fmt.Errorf("page id: %w", err)
	}

	ns := 0
	if nsNode := xmlquery.QuerySelector(n, nsExpr); nsNode != nil {
		v, err := strconv.Atoi(strings.TrimSpace(nsNode.InnerText()))
		if err != nil {
			return nil, fmt.Errorf("page %d namespace: %w", id, err)
		}
		ns = v
	}

	return &Page{
		Page: types.Page{
			ID:        id,
			Namespace: ns,
			Title:     norm.NFC.String(textField(n, titleExpr)),
		},
		revisions: xmlquery.QuerySelectorAll(n, revisionExpr),
	}, nil
}

func parseRevision(n *xmlquery.Node) (types.Revision, error) {
	id, err := intField(n, idExpr)
	if err != nil {
		return types.Revision{}, fmt.Errorf("revision id: %w", err)
	}

	rev := types.Revision{
		ID:       id,
		ParentID: -1,
		User:     parseContributor(xmlquery.QuerySelector(n, contributorExpr)),
		Minor:    xmlquery.QuerySelector(n, minorExpr) != nil,
		Comment:  textField(n, commentExpr),
		Model:    textField(n, modelExpr),
		Format:   textField(n, formatExpr),
		Text:     textField(n, textExpr),
	}
	rev.Bytes = len(rev.Text)

	if xmlquery.QuerySelector(n, parentIDExpr) != nil {
		if rev.ParentID, err = intField(n, parentIDExpr); err != nil {
			return types.Revision{}, fmt.Errorf("revision %d parent id: %w", id, err)
		}
	}

	if ts := textField(n, timestampExpr); ts != "" {
		if rev.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return types.Revision{}, fmt.Errorf("revision %d timestamp: %w", id, err)
		}
	}

	return rev, nil
}

func parseContributor(n *xmlquery.Node) types.User {
	none := types.User{Type: types.UserNone, Name: "None", ID: -2}
	if n == nil || n.SelectAttr("deleted") != "" {
		return none
	}
	if xmlquery.QuerySelector(n, idExpr) != nil {
		id, err := intField(n, idExpr)
		if err == nil {
			return types.User{
				Type: types.UserRegistered,
				Name: textField(n, usernameExpr),
				ID:   id,
			}
		}
	}
	if ip := textField(n, ipExpr); ip != "" {
		return types.User{Type: types.UserIP, Name: ip, ID: -1}
	}
	return none
}

func textField(n *xmlquery.Node, expr *xpath.Expr) string {
	child := xmlquery.QuerySelector(n, expr)
	if child == nil {
		return ""
	}
	return child.InnerText()
}

func intField(n *xmlquery.Node, expr *xpath.Expr) (int64, error) {
	child := xmlquery.QuerySelector(n, expr)
	if child == nil {
		return 0, errors.New("missing")
	}
	return strconv.ParseInt(strings.TrimSpace(child.InnerText()), 10, 64)
}
