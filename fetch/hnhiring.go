package fetch

import (
	"context"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

const defaultHNFeedURL = "https://hnrss.org/whoishiring/jobs"

// HNHiring fetches the HN "Who is hiring?" thread via the hnrss.org feed.
// Posts have no native ID in the feed; identity comes from the item link.
type HNHiring struct {
	source
	feedURL string
}

// NewHNHiring builds an HN hiring fetcher. feed_url is optional.
func NewHNHiring(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	feedURL := sc.FeedURL
	if feedURL == "" {
		feedURL = defaultHNFeedURL
	}
	return &HNHiring{
		source:  newSource("hn", sc.Name, "HN Who is Hiring", client),
		feedURL: feedURL,
	}, nil
}

type hnFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (h *HNHiring) Fetch(ctx context.Context) ([]job.Posting, error) {
	data, err := h.client.Get(ctx, h.feedURL)
	if err != nil {
		return nil, err
	}

	var feed hnFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, errors.Wrap(err, "parse hiring feed")
	}

	postings := make([]job.Posting, 0, len(feed.Channel.Items))
	for _, entry := range feed.Channel.Items {
		text := entry.Title
		if text == "" {
			text = entry.Description
		}

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(h.group, job.IdentityFields{URL: entry.Link}),
			SourceGroup: h.group,
			SourceName:  h.name,
			Title:       parseHNTitle(text),
			Company:     parseHNCompany(text),
			URL:         entry.Link,
			Snippet:     job.TruncateSnippet(stripHTML(entry.Description)),
		})
	}

	return postings, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// stripHTML flattens an HTML fragment to plain text for the snippet.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(doc.Text(), " "))
}

// parseHNCompany extracts the company from the conventional
// "Company | Role | Location | ..." first line of an HN hiring post.
func parseHNCompany(text string) string {
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])

	if strings.Contains(firstLine, "|") {
		return strings.TrimSpace(strings.SplitN(firstLine, "|", 2)[0])
	}

	words := strings.Fields(firstLine)
	if len(words) > 3 {
		words = words[:3]
	}
	if len(words) == 0 {
		return "Unknown"
	}
	return strings.Join(words, " ")
}

// parseHNTitle extracts the role from the same convention.
func parseHNTitle(text string) string {
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])

	if strings.Contains(firstLine, "|") {
		parts := strings.Split(firstLine, "|")
		if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
		return firstLine
	}

	if firstLine == "" {
		return "HN Hiring Post"
	}
	if len(firstLine) > 100 {
		return firstLine[:100]
	}
	return firstLine
}
