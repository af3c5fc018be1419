// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Link is one indexed wikilink with its page and revision.
type Link struct {
	PageID            int64  `json:"page_id" yaml:"page_id"`
	PageTitle         string `json:"page_title" yaml:"page_title"`
	RevisionID        int64  `json:"revision_id" yaml:"revision_id"`
	RevisionTimestamp string `json:"revision_timestamp" yaml:"revision_timestamp"`
	Link              string `json:"link" yaml:"link"`
	ToSection         string `json:"tosection" yaml:"tosection"`
	Anchor            string `json:"anchor" yaml:"anchor"`
	SectionName       string `json:"section_name" yaml:"section_name"`
	SectionLevel      int    `json:"section_level" yaml:"section_level"`
	SectionNumber     int    `json:"section_number" yaml:"section_number"`
}

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is an FTS5 search over anchor and link text.
	Query string

	// Link filters by exact link target.
	Link string

	// PageTitle filters by the page the links appear on.
	PageTitle string

	// Section filters by section name.
	Section string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Link == "" && q.PageTitle == "" && q.Section == ""
}

// Retrieve queries the index. Full-text queries are ranked by relevance;
// filter-only queries are ordered by page, revision, and position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Link, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	const cols = `l.page_id, l.page_title, l.revision_id, l.revision_timestamp,
		l.link, l.tosection, l.anchor, l.section_name, l.section_level, l.section_number`

	if useFTS {
		qb.WriteString(`SELECT ` + cols + `
			FROM links_fts
			JOIN links l ON l.rowid = links_fts.rowid
			WHERE links_fts MATCH ?`)
		args = append(args, norm.NFC.String(opts.Query))
	} else {
		qb.WriteString(`SELECT ` + cols + ` FROM links l WHERE 1=1`)
	}

	if opts.Link != "" {
		qb.WriteString(` AND l.link = ?`)
		args = append(args, norm.NFC.String(opts.Link))
	}
	if opts.PageTitle != "" {
		qb.WriteString(` AND l.page_title = ?`)
		args = append(args, norm.NFC.String(opts.PageTitle))
	}
	if opts.Section != "" {
		qb.WriteString(` AND l.section_name = ?`)
		args = append(args, opts.Section)
	}

	if useFTS {
		qb.WriteString(` ORDER BY links_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY l.page_id, l.revision_id, l.rowid`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(
			&l.PageID, &l.PageTitle, &l.RevisionID, &l.RevisionTimestamp,
			&l.Link, &l.ToSection, &l.Anchor, &l.SectionName, &l.SectionLevel, &l.SectionNumber,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}
