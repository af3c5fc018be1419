// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store indexes extracted wikilinks in SQLite and answers
// full-text and structured queries over them.
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/blake3"

	"github.com/pdiddy/wikidump/internal/output"
	"github.com/pdiddy/wikidump/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "links.db"
)

// Store manages the link index SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the index at dir/index/links.db and creates the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "store"
	}
	dbDir := filepath.Join(dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			path TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			indexed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS links (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL REFERENCES sources(path),
			page_id INTEGER NOT NULL,
			page_title TEXT NOT NULL,
			revision_id INTEGER NOT NULL,
			revision_timestamp TEXT,
			link TEXT NOT NULL,
			tosection TEXT,
			anchor TEXT,
			section_name TEXT,
			section_level INTEGER,
			section_number INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_link ON links(link)`,
		`CREATE INDEX IF NOT EXISTS idx_links_page ON links(page_id)`,
		`CREATE INDEX IF NOT EXISTS idx_links_source ON links(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='links_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE links_fts USING fts5(anchor, link, content=links, content_rowid=rowid)`,
		`CREATE TRIGGER links_ai AFTER INSERT ON links BEGIN
			INSERT INTO links_fts(rowid, anchor, link) VALUES (new.rowid, new.anchor, new.link);
		END`,
		`CREATE TRIGGER links_ad AFTER DELETE ON links BEGIN
			INSERT INTO links_fts(links_fts, rowid, anchor, link) VALUES('delete', old.rowid, old.anchor, old.link);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// requiredColumns are the features columns the index reads.
var requiredColumns = []string{
	"page_id",
	"page_title",
	"revision_id",
	"revision_timestamp",
	"wikilink.link",
	"wikilink.tosection",
	"wikilink.anchor",
	"wikilink.section_name",
	"wikilink.section_level",
	"wikilink.section_number",
}

// Ingest loads extract-wikilinks features files into the index. Files
// whose content digest matches the last ingestion are skipped; changed
// files replace their earlier rows. On success it writes export.yaml.
func (s *Store) Ingest(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		name := filepath.Base(path)

		digest, err := fileDigest(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var stored string
		err = s.db.QueryRowContext(ctx,
			`SELECT digest FROM sources WHERE path = ?`, path,
		).Scan(&stored)
		if err == nil && stored == digest {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return summary, fmt.Errorf("looking up %s: %w", path, err)
		}
		isUpdate := err == nil

		n, err := s.ingestFile(ctx, path, digest, isUpdate)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d links)\n", name, n)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d links)\n", name, n)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}
	return summary, nil
}

// fileDigest returns the hex BLAKE3 digest of the file at path.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Store) ingestFile(ctx context.Context, path, digest string, isUpdate bool) (int, error) {
	in, err := output.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source = ?`, path); err != nil {
			return 0, fmt.Errorf("deleting old links: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (path, digest, indexed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET digest=excluded.digest, indexed_at=excluded.indexed_at`,
		path, digest, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("recording source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO links (source, page_id, page_title, revision_id, revision_timestamp,
			link, tosection, anchor, section_name, section_level, section_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading row %d: %w", n+1, err)
		}

		l, err := cols.record(rec)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", n+1, err)
		}
		if _, err := stmt.ExecContext(ctx,
			path, l.PageID, l.PageTitle, l.RevisionID, l.RevisionTimestamp,
			l.Link, l.ToSection, l.Anchor, l.SectionName, l.SectionLevel, l.SectionNumber,
		); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", n+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return n, nil
}

// columns maps required column names to their position in a header.
type columns map[string]int

func columnIndex(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	cols := make(columns, len(requiredColumns))
	for _, name := range requiredColumns {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("not a wikilinks features file: missing column %q", name)
		}
		cols[name] = i
	}
	return cols, nil
}

func (c columns) record(rec []string) (Link, error) {
	get := func(name string) string { return rec[c[name]] }

	var l Link
	var err error
	if l.PageID, err = strconv.ParseInt(get("page_id"), 10, 64); err != nil {
		return Link{}, fmt.Errorf("page_id: %w", err)
	}
	if l.RevisionID, err = strconv.ParseInt(get("revision_id"), 10, 64); err != nil {
		return Link{}, fmt.Errorf("revision_id: %w", err)
	}
	if l.SectionLevel, err = strconv.Atoi(get("wikilink.section_level")); err != nil {
		return Link{}, fmt.Errorf("section_level: %w", err)
	}
	if l.SectionNumber, err = strconv.Atoi(get("wikilink.section_number")); err != nil {
		return Link{}, fmt.Errorf("section_number: %w", err)
	}
	l.PageTitle = get("page_title")
	l.RevisionTimestamp = get("revision_timestamp")
	l.Link = get("wikilink.link")
	l.ToSection = get("wikilink.tosection")
	l.Anchor = get("wikilink.anchor")
	l.SectionName = get("wikilink.section_name")
	return l, nil
}
