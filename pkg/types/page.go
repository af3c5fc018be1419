// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Page identifies one page of a dump.
type Page struct {
	ID        int64  `json:"id" yaml:"id"`
	Namespace int    `json:"namespace" yaml:"namespace"`
	Title     string `json:"title" yaml:"title"`
}

// IsArticle reports whether the page is in the main namespace.
func (p Page) IsArticle() bool {
	return p.Namespace == 0
}

// UserType classifies the contributor of a revision.
type UserType string

const (
	UserRegistered UserType = "registered"
	UserIP         UserType = "ip"
	UserNone       UserType = "None"
)

// User is the contributor of a revision. Registered users carry their
// numeric ID; anonymous contributors are identified by IP address and use
// ID -1; suppressed contributors have type None and ID -2.
type User struct {
	Type UserType `json:"type" yaml:"type"`
	Name string   `json:"name" yaml:"name"`
	ID   int64    `json:"id" yaml:"id"`
}

// Revision is one revision of a page.
type Revision struct {
	ID int64 `json:"id" yaml:"id"`

	// ParentID is the previous revision, or -1 for the first.
	ParentID int64 `json:"parent_id" yaml:"parent_id"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	User      User      `json:"user" yaml:"user"`
	Minor     bool      `json:"minor" yaml:"minor"`
	Comment   string    `json:"comment" yaml:"comment"`
	Model     string    `json:"model" yaml:"model"`
	Format    string    `json:"format" yaml:"format"`
	Text      string    `json:"-" yaml:"-"`

	// Bytes is the UTF-8 length of Text.
	Bytes int `json:"bytes" yaml:"bytes"`
}

// TimestampString formats the timestamp the way dumps write it.
func (r Revision) TimestampString() string {
	return r.Timestamp.UTC().Format(time.RFC3339)
}

// MinorFlag returns 1 for minor revisions and 0 otherwise.
func (r Revision) MinorFlag() int {
	if r.Minor {
		return 1
	}
	return 0
}
