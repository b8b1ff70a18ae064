package job

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// IdentityFields are the raw fields available for deriving a posting UID.
// All fields are optional; the derivation falls back through three tiers
// depending on what is present.
type IdentityFields struct {
	RawID    string
	URL      string
	Title    string
	Company  string
	Location string
	PostedAt *time.Time
}

// DeriveIdentity produces a stable UID for a posting with a 3-tier fallback:
//
//  1. "{group}:{rawID}" when the source exposes a native ID. Stable across
//     re-fetches and readable in logs.
//  2. "{group}:url:{digest}" over the canonicalized URL. Canonicalization is
//     required because boards re-serve the same posting with different
//     tracking parameters and trailing-slash variants between polls.
//  3. "{group}:hash:{digest}" over title/company/location/postedAt. Least
//     reliable: any field drift yields a new UID. Best-effort only.
//
// The function is pure: identical inputs always yield the identical UID.
func DeriveIdentity(sourceGroup string, f IdentityFields) string {
	if f.RawID != "" {
		return fmt.Sprintf("%s:%s", sourceGroup, f.RawID)
	}

	if f.URL != "" {
		canonical := CanonicalizeURL(f.URL)
		digest := shortDigest(sourceGroup + ":" + canonical)
		return fmt.Sprintf("%s:url:%s", sourceGroup, digest)
	}

	postedAt := ""
	if f.PostedAt != nil {
		postedAt = f.PostedAt.UTC().Format(time.RFC3339)
	}
	parts := fmt.Sprintf("%s:%s:%s:%s:%s", sourceGroup, f.Title, f.Company, f.Location, postedAt)
	return fmt.Sprintf("%s:hash:%s", sourceGroup, shortDigest(parts))
}

// CanonicalizeURL normalizes a posting URL: lowercase scheme and host
// (default scheme https), strip query string and fragment, strip the
// trailing slash from the path.
func CanonicalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(u.Host)
	path := strings.TrimRight(u.Path, "/")

	return scheme + "://" + host + path
}

func shortDigest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
