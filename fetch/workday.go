package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

const workdayPageSize = 20

// Workday fetches from the Workday cxs JSON API, paging with offset. Job
// links are reconstructed from the board base URL because the API only
// returns relative external paths.
type Workday struct {
	source
	baseURL      string
	jobBoardBase string
	company      string
}

// NewWorkday builds a Workday fetcher. Requires base_url, the cxs jobs
// endpoint, e.g. https://adobe.wd5.myworkdayjobs.com/wday/cxs/adobe/external/jobs
func NewWorkday(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.BaseURL == "" {
		return nil, errors.NewInvalidConfigError("workday source requires base_url")
	}

	u, err := url.Parse(sc.BaseURL)
	if err != nil {
		return nil, errors.NewInvalidConfigError("workday base_url is not a valid URL: %v", err)
	}

	// API path is /wday/cxs/{company}/{board}/jobs; job links live under
	// https://{host}/{board}
	parts := strings.Split(u.Path, "/")
	board := ""
	if len(parts) >= 2 {
		board = parts[len(parts)-2]
	}
	jobBoardBase := fmt.Sprintf("%s://%s/%s", u.Scheme, u.Host, board)

	return &Workday{
		source:       newSource("workday", sc.Name, u.Host, client),
		baseURL:      sc.BaseURL,
		jobBoardBase: jobBoardBase,
		company:      sc.Company,
	}, nil
}

type workdayRequest struct {
	AppliedFacets map[string]interface{} `json:"appliedFacets"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
	SearchText    string                 `json:"searchText"`
}

type workdayPage struct {
	Total       int `json:"total"`
	JobPostings []struct {
		Title         string   `json:"title"`
		ExternalPath  string   `json:"externalPath"`
		LocationsText string   `json:"locationsText"`
		PostedOn      string   `json:"postedOn"`
		BulletFields  []string `json:"bulletFields"`
	} `json:"jobPostings"`
}

func (w *Workday) Fetch(ctx context.Context) ([]job.Posting, error) {
	var postings []job.Posting

	for offset := 0; ; offset += workdayPageSize {
		body, err := json.Marshal(workdayRequest{
			AppliedFacets: map[string]interface{}{},
			Limit:         workdayPageSize,
			Offset:        offset,
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshal workday request")
		}

		data, err := w.client.Post(ctx, w.baseURL, body, "application/json")
		if err != nil {
			return nil, err
		}

		var page workdayPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, errors.Wrap(err, "decode workday response")
		}

		for _, item := range page.JobPostings {
			fullURL := w.jobBoardBase + item.ExternalPath

			postings = append(postings, job.Posting{
				// No native ID in the listing response; the URL tier carries identity
				UID:         job.DeriveIdentity(w.group, job.IdentityFields{URL: fullURL}),
				SourceGroup: w.group,
				SourceName:  w.name,
				Title:       item.Title,
				Company:     w.company,
				Location:    item.LocationsText,
				URL:         fullURL,
				Snippet:     job.TruncateSnippet(strings.Join(item.BulletFields, " | ")),
				PostedAt:    parseISOTime(item.PostedOn),
			})
		}

		if len(page.JobPostings) == 0 || offset+workdayPageSize >= page.Total {
			break
		}
	}

	return postings, nil
}
