// Package job defines the normalized posting model and identity derivation.
//
// Every fetcher, whatever the upstream format (ATS JSON API, feed, scraped
// page), produces Postings in this shape. A Posting is constructed once per
// fetch cycle and treated as immutable afterwards; only its UID, source group
// and URL survive into the seen-set.
package job

import (
	"time"
	"unicode/utf8"
)

// MaxSnippetLen is the maximum stored snippet length, including the
// truncation marker.
const MaxSnippetLen = 2000

// Posting is a normalized job posting.
type Posting struct {
	UID         string
	SourceGroup string
	SourceName  string
	Title       string
	Company     string
	Location    string
	Remote      bool
	URL         string
	Snippet     string
	PostedAt    *time.Time
	RawID       string
	Tags        []string
}

// TruncateSnippet enforces the snippet length invariant: at most
// MaxSnippetLen characters, with a trailing "..." marker when truncated.
// The limit counts characters, not bytes, so multi-byte text is never cut
// mid-rune.
func TruncateSnippet(s string) string {
	if utf8.RuneCountInString(s) <= MaxSnippetLen {
		return s
	}
	return string([]rune(s)[:MaxSnippetLen-3]) + "..."
}
