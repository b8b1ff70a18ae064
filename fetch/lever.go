package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

// Lever fetches from the Lever postings API.
type Lever struct {
	source
	slug    string
	company string
	apiBase string
}

// NewLever builds a Lever fetcher. Requires slug.
func NewLever(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.Slug == "" {
		return nil, errors.NewInvalidConfigError("lever source requires slug")
	}
	company := sc.Company
	if company == "" {
		company = sc.Slug
	}
	return &Lever{
		source:  newSource("lever", sc.Name, sc.Slug, client),
		slug:    sc.Slug,
		company: company,
		apiBase: "https://api.lever.co",
	}, nil
}

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	DescriptionPlain string `json:"descriptionPlain"`
	CreatedAt        int64  `json:"createdAt"`
	Categories       struct {
		Location string `json:"location"`
	} `json:"categories"`
}

func (l *Lever) Fetch(ctx context.Context) ([]job.Posting, error) {
	url := fmt.Sprintf("%s/v0/postings/%s?mode=json", l.apiBase, l.slug)
	data, err := l.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var items []leverPosting
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "decode lever response")
	}

	postings := make([]job.Posting, 0, len(items))
	for _, item := range items {
		var postedAt *time.Time
		if item.CreatedAt > 0 {
			ts := time.UnixMilli(item.CreatedAt).UTC()
			postedAt = &ts
		}

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(l.group, job.IdentityFields{RawID: item.ID, URL: item.HostedURL}),
			SourceGroup: l.group,
			SourceName:  l.name,
			Title:       item.Text,
			Company:     l.company,
			Location:    item.Categories.Location,
			URL:         item.HostedURL,
			Snippet:     job.TruncateSnippet(item.DescriptionPlain),
			PostedAt:    postedAt,
			RawID:       item.ID,
		})
	}

	return postings, nil
}
