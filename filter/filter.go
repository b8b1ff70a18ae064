// Package filter decides whether a posting is relevant to the configured
// interest criteria.
//
// Evaluation is a pure function over a posting and a FilterConfig: no I/O,
// no mutation, deterministic. Stages run in a fixed order and short-circuit;
// a later stage never overrides an earlier rejection.
package filter

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/job"
)

// Decision is the outcome of evaluating a posting.
type Decision struct {
	Relevant bool
	// MatchedKeywords are the include keywords that matched. Populated even
	// when the level gate rejects, so callers can log what almost passed.
	MatchedKeywords []string
}

// experiencePattern matches expressions like "3 years", "3+ years",
// "3-5 years" and "3 to 5 years".
var experiencePattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:(?:-|to)\s*(\d{1,2})\s*\+?\s*)?years?\b`)

// Evaluate checks a posting against the rule set. Stage order:
// exclude -> experience ceiling -> location -> include -> level gate.
func Evaluate(p *job.Posting, cfg *config.FilterConfig) Decision {
	searchable := strings.ToLower(p.Title + " " + p.Snippet + " " + p.Company)

	// Exclude check: any match rejects outright
	for _, kw := range cfg.ExcludeKeywords {
		if KeywordMatches(kw, searchable) {
			return Decision{}
		}
	}

	// Experience ceiling: reject only on strictly-greater, so a posting
	// asking for exactly the ceiling still passes
	if cfg.MaxExperienceYears > 0 && exceedsExperienceCeiling(searchable, cfg.MaxExperienceYears) {
		return Decision{}
	}

	// Location: empty location gets the benefit of the doubt
	if cfg.Location.Enabled && !locationAllowed(p.Location, &cfg.Location) {
		return Decision{}
	}

	// Include check: empty list matches everything
	var matched []string
	if len(cfg.IncludeKeywords) > 0 {
		for _, kw := range cfg.IncludeKeywords {
			if KeywordMatches(kw, searchable) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			return Decision{}
		}
	}

	// Level gate: at least one seniority term must match when enabled.
	// Matched include keywords are still reported on rejection.
	if cfg.LevelGate.Enabled && len(cfg.LevelGate.Terms) > 0 {
		gatePass := false
		for _, term := range cfg.LevelGate.Terms {
			if KeywordMatches(term, searchable) {
				gatePass = true
				break
			}
		}
		if !gatePass {
			return Decision{MatchedKeywords: matched}
		}
	}

	return Decision{Relevant: true, MatchedKeywords: matched}
}

// exceedsExperienceCeiling scans for experience-year expressions and reports
// whether any captured number strictly exceeds the ceiling.
func exceedsExperienceCeiling(text string, ceiling int) bool {
	for _, m := range experiencePattern.FindAllStringSubmatch(text, -1) {
		for _, group := range m[1:] {
			if group == "" {
				continue
			}
			n, err := strconv.Atoi(group)
			if err != nil {
				continue
			}
			if n > ceiling {
				return true
			}
		}
	}
	return false
}

// locationAllowed applies the allow/deny lists to the posting location.
// Empty location is always allowed. An empty allow-list means "allow
// everything not explicitly excluded".
func locationAllowed(location string, cfg *config.LocationConfig) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return true
	}

	for _, kw := range cfg.Excluded {
		if strings.Contains(loc, strings.ToLower(kw)) {
			return false
		}
	}

	if len(cfg.Allowed) == 0 {
		return true
	}
	for _, kw := range cfg.Allowed {
		if strings.Contains(loc, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// KeywordMatches checks a keyword against lowercased text. Multi-token
// keywords (containing a space, hyphen, period or comma) match by plain
// substring; bare words match on word boundaries so that e.g. "api" does
// not match inside "capital".
func KeywordMatches(keyword, text string) bool {
	kw := strings.ToLower(keyword)
	if strings.ContainsAny(kw, " -.,") {
		return strings.Contains(text, kw)
	}
	return wordPattern(kw).MatchString(text)
}

var (
	wordPatternMu    sync.RWMutex
	wordPatternCache = map[string]*regexp.Regexp{}
)

// wordPattern returns a cached word-boundary matcher for a bare keyword.
func wordPattern(kw string) *regexp.Regexp {
	wordPatternMu.RLock()
	re, ok := wordPatternCache[kw]
	wordPatternMu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	wordPatternMu.Lock()
	wordPatternCache[kw] = re
	wordPatternMu.Unlock()
	return re
}
