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

// Ashby fetches from the Ashby public posting API. The source group may be
// overridden per-source so that boards hosted on Ashby can route to their
// own webhook channel.
type Ashby struct {
	source
	clientName string
	company    string
}

// NewAshby builds an Ashby fetcher. Requires clientname.
func NewAshby(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.ClientName == "" {
		return nil, errors.NewInvalidConfigError("ashby source requires clientname")
	}
	group := "ashby"
	if sc.SourceGroup != "" {
		group = sc.SourceGroup
	}
	company := sc.Company
	if company == "" {
		company = sc.ClientName
	}
	return &Ashby{
		source:     newSource(group, sc.Name, sc.ClientName, client),
		clientName: sc.ClientName,
		company:    company,
	}, nil
}

type ashbyResponse struct {
	Jobs []struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		Location         string `json:"location"`
		JobURL           string `json:"jobUrl"`
		DescriptionPlain string `json:"descriptionPlain"`
		PublishedAt      string `json:"publishedAt"`
	} `json:"jobs"`
}

func (a *Ashby) Fetch(ctx context.Context) ([]job.Posting, error) {
	url := fmt.Sprintf("https://api.ashbyhq.com/posting-api/job-board/%s", a.clientName)
	data, err := a.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp ashbyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "decode ashby response")
	}

	postings := make([]job.Posting, 0, len(resp.Jobs))
	for _, item := range resp.Jobs {
		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(a.group, job.IdentityFields{RawID: item.ID, URL: item.JobURL}),
			SourceGroup: a.group,
			SourceName:  a.name,
			Title:       item.Title,
			Company:     a.company,
			Location:    item.Location,
			URL:         item.JobURL,
			Snippet:     job.TruncateSnippet(item.DescriptionPlain),
			PostedAt:    parseISOTime(item.PublishedAt),
			RawID:       item.ID,
		})
	}

	return postings, nil
}
