package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

// Greenhouse fetches from the Greenhouse job boards API.
type Greenhouse struct {
	source
	boardToken string
	company    string
	apiBase    string
}

// NewGreenhouse builds a Greenhouse fetcher. Requires board_token.
func NewGreenhouse(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.BoardToken == "" {
		return nil, errors.NewInvalidConfigError("greenhouse source requires board_token")
	}
	company := sc.Company
	if company == "" {
		company = sc.BoardToken
	}
	return &Greenhouse{
		source:     newSource("greenhouse", sc.Name, sc.BoardToken, client),
		boardToken: sc.BoardToken,
		company:    company,
		apiBase:    "https://boards-api.greenhouse.io",
	}, nil
}

type greenhouseResponse struct {
	Jobs []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		AbsoluteURL string `json:"absolute_url"`
		UpdatedAt   string `json:"updated_at"`
		Location    *struct {
			Name string `json:"name"`
		} `json:"location"`
	} `json:"jobs"`
}

func (g *Greenhouse) Fetch(ctx context.Context) ([]job.Posting, error) {
	url := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", g.apiBase, g.boardToken)
	data, err := g.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp greenhouseResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "decode greenhouse response")
	}

	postings := make([]job.Posting, 0, len(resp.Jobs))
	for _, item := range resp.Jobs {
		rawID := ""
		if item.ID != 0 {
			rawID = strconv.FormatInt(item.ID, 10)
		}

		location := ""
		if item.Location != nil {
			location = item.Location.Name
		}

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(g.group, job.IdentityFields{RawID: rawID, URL: item.AbsoluteURL}),
			SourceGroup: g.group,
			SourceName:  g.name,
			Title:       item.Title,
			Company:     g.company,
			Location:    location,
			URL:         item.AbsoluteURL,
			// Descriptions often carry HTML entities; skip the snippet
			PostedAt: parseISOTime(item.UpdatedAt),
			RawID:    rawID,
		})
	}

	return postings, nil
}
