package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

// Workable fetches from the Workable widget API.
type Workable struct {
	source
	subdomain string
	company   string
}

// NewWorkable builds a Workable fetcher. Requires subdomain.
func NewWorkable(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.Subdomain == "" {
		return nil, errors.NewInvalidConfigError("workable source requires subdomain")
	}
	company := sc.Company
	if company == "" {
		company = sc.Subdomain
	}
	return &Workable{
		source:    newSource("workable", sc.Name, sc.Subdomain, client),
		subdomain: sc.Subdomain,
		company:   company,
	}, nil
}

type workableResponse struct {
	Jobs []struct {
		Shortcode        string `json:"shortcode"`
		Title            string `json:"title"`
		URL              string `json:"url"`
		ShortDescription string `json:"shortDescription"`
		City             string `json:"city"`
		State            string `json:"state"`
		Country          string `json:"country"`
	} `json:"jobs"`
}

func (w *Workable) Fetch(ctx context.Context) ([]job.Posting, error) {
	url := fmt.Sprintf("https://apply.workable.com/api/v1/widget/accounts/%s", w.subdomain)
	data, err := w.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp workableResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "decode workable response")
	}

	postings := make([]job.Posting, 0, len(resp.Jobs))
	for _, item := range resp.Jobs {
		var parts []string
		for _, v := range []string{item.City, item.State, item.Country} {
			if v != "" {
				parts = append(parts, v)
			}
		}

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(w.group, job.IdentityFields{RawID: item.Shortcode, URL: item.URL}),
			SourceGroup: w.group,
			SourceName:  w.name,
			Title:       item.Title,
			Company:     w.company,
			Location:    strings.Join(parts, ", "),
			URL:         item.URL,
			Snippet:     job.TruncateSnippet(item.ShortDescription),
			RawID:       item.Shortcode,
		})
	}

	return postings, nil
}
