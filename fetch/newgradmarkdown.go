package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

// NewGradMarkdown fetches curated new-grad repos that publish their listings
// as README markdown tables (speedyapply, zapplyjobs and similar) rather
// than JSON. Rows have no native ID, so identity comes from the apply link.
type NewGradMarkdown struct {
	source
	owner  string
	repo   string
	branch string
	files  []string
}

// NewNewGradMarkdown builds a markdown-table fetcher. Requires owner, repo
// and files; branch defaults to "main".
func NewNewGradMarkdown(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.Owner == "" || sc.Repo == "" || len(sc.Files) == 0 {
		return nil, errors.NewInvalidConfigError("newgrad_markdown source requires owner, repo and files")
	}
	branch := sc.Branch
	if branch == "" {
		branch = "main"
	}
	return &NewGradMarkdown{
		source: newSource("newgrad", sc.Name, sc.Owner+"/"+sc.Repo, client),
		owner:  sc.Owner,
		repo:   sc.Repo,
		branch: branch,
		files:  sc.Files,
	}, nil
}

func (n *NewGradMarkdown) Fetch(ctx context.Context) ([]job.Posting, error) {
	var postings []job.Posting
	for _, filename := range n.files {
		url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
			n.owner, n.repo, n.branch, filename)
		data, err := n.client.Get(ctx, url)
		if err != nil {
			return nil, err
		}
		postings = append(postings, n.parseMarkdownTables(string(data))...)
	}
	return postings, nil
}

var (
	separatorCell = regexp.MustCompile(`^[-:]+$`)
	markdownLink  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	bareLink      = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// parseMarkdownTables walks the file line by line, locating tables by their
// header and |---| separator rows and mapping columns by header name. Rows
// missing a company or apply link are skipped; a file may contain several
// tables with different column orders.
func (n *NewGradMarkdown) parseMarkdownTables(text string) []job.Posting {
	var postings []job.Posting
	cols := map[string]int{}
	inTable := false

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			inTable = false
			cols = map[string]int{}
			continue
		}

		cells := splitTableRow(line)

		if isSeparatorRow(cells) {
			inTable = true
			continue
		}

		if !inTable {
			for i, cell := range cells {
				switch c := strings.ToLower(cell); {
				case strings.Contains(c, "company"):
					cols["company"] = i
				case strings.Contains(c, "role"), strings.Contains(c, "position"), strings.Contains(c, "title"):
					cols["title"] = i
				case strings.Contains(c, "location"):
					cols["location"] = i
				case strings.Contains(c, "link"), strings.Contains(c, "apply"), strings.Contains(c, "application"):
					cols["link"] = i
				}
			}
			continue
		}

		if len(cols) == 0 {
			continue
		}

		company := cellText(cells, cols, "company")
		title := cellText(cells, cols, "title")
		location := cellText(cells, cols, "location")

		applyURL := ""
		if idx, ok := cols["link"]; ok && idx < len(cells) {
			applyURL = extractCellURL(cells[idx])
		}
		if applyURL == "" || company == "" {
			continue
		}
		if title == "" {
			title = "Unknown Position"
		}

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(n.group, job.IdentityFields{URL: applyURL}),
			SourceGroup: n.group,
			SourceName:  n.name,
			Title:       title,
			Company:     company,
			Location:    location,
			URL:         applyURL,
		})
	}

	return postings
}

// splitTableRow splits "| a | b |" into its inner cells.
func splitTableRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil
	}
	cells := make([]string, 0, len(parts)-2)
	for _, p := range parts[1 : len(parts)-1] {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c != "" && !separatorCell.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}

// cellText resolves a named column to plain text, stripping markdown links
// and HTML tags.
func cellText(cells []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(cells) {
		return ""
	}
	cell := markdownLink.ReplaceAllString(cells[idx], "$1")
	cell = htmlTag.ReplaceAllString(cell, "")
	return strings.TrimSpace(cell)
}

// extractCellURL pulls the apply URL out of a cell: a markdown link target
// when present, otherwise the first bare URL.
func extractCellURL(cell string) string {
	if m := markdownLink.FindStringSubmatch(cell); m != nil {
		return m[2]
	}
	return bareLink.FindString(cell)
}
