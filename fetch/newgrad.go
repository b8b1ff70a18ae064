package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

// NewGradJSON fetches curated new-grad listing JSON files published in
// GitHub repositories (vanshb03, SimplifyJobs and similar).
type NewGradJSON struct {
	source
	owner    string
	repo     string
	branch   string
	jsonPath string
}

// NewNewGradJSON builds a new-grad listing fetcher. Requires owner, repo
// and json_path; branch defaults to "dev".
func NewNewGradJSON(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.Owner == "" || sc.Repo == "" || sc.JSONPath == "" {
		return nil, errors.NewInvalidConfigError("newgrad_json source requires owner, repo and json_path")
	}
	branch := sc.Branch
	if branch == "" {
		branch = "dev"
	}
	return &NewGradJSON{
		source:   newSource("newgrad", sc.Name, sc.Owner+"/"+sc.Repo, client),
		owner:    sc.Owner,
		repo:     sc.Repo,
		branch:   branch,
		jsonPath: sc.JSONPath,
	}, nil
}

type newGradListing struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	URL         string   `json:"url"`
	Locations   []string `json:"locations"`
	Sponsorship string   `json:"sponsorship"`
	DatePosted  string   `json:"date_posted"`
	DateUpdated string   `json:"date_updated"`
	Active      *bool    `json:"active"`
	IsVisible   *bool    `json:"is_visible"`
}

func (n *NewGradJSON) Fetch(ctx context.Context) ([]job.Posting, error) {
	url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		n.owner, n.repo, n.branch, n.jsonPath)
	data, err := n.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var listings []newGradListing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, errors.Wrap(err, "decode new-grad listings")
	}

	var postings []job.Posting
	for _, entry := range listings {
		// Absent flags default to true
		if (entry.Active != nil && !*entry.Active) || (entry.IsVisible != nil && !*entry.IsVisible) {
			continue
		}

		location := ""
		if len(entry.Locations) > 0 {
			location = entry.Locations[0]
		}

		var tags []string
		if entry.Sponsorship != "" {
			tags = append(tags, "sponsorship:"+entry.Sponsorship)
		}

		dateStr := entry.DatePosted
		if dateStr == "" {
			dateStr = entry.DateUpdated
		}

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(n.group, job.IdentityFields{RawID: entry.ID, URL: entry.URL}),
			SourceGroup: n.group,
			SourceName:  n.name,
			Title:       entry.Title,
			Company:     entry.CompanyName,
			Location:    location,
			URL:         entry.URL,
			PostedAt:    parseISOTime(dateStr),
			RawID:       entry.ID,
			Tags:        tags,
		})
	}

	return postings, nil
}
