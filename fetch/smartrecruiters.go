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

const smartRecruitersPageSize = 100

// SmartRecruiters fetches from the SmartRecruiters posting API, paging
// through results with offset/limit.
type SmartRecruiters struct {
	source
	companyID string
	company   string
}

// NewSmartRecruiters builds a SmartRecruiters fetcher. Requires company_id.
func NewSmartRecruiters(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	if sc.CompanyID == "" {
		return nil, errors.NewInvalidConfigError("smartrecruiters source requires company_id")
	}
	company := sc.Company
	if company == "" {
		company = sc.CompanyID
	}
	return &SmartRecruiters{
		source:    newSource("smartrecruiters", sc.Name, sc.CompanyID, client),
		companyID: sc.CompanyID,
		company:   company,
	}, nil
}

type smartRecruitersPage struct {
	TotalFound int `json:"totalFound"`
	Content    []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		RefURL   string `json:"ref_url"`
		Location struct {
			City    string `json:"city"`
			Country string `json:"country"`
		} `json:"location"`
	} `json:"content"`
}

func (s *SmartRecruiters) Fetch(ctx context.Context) ([]job.Posting, error) {
	var postings []job.Posting

	for offset := 0; ; offset += smartRecruitersPageSize {
		url := fmt.Sprintf(
			"https://api.smartrecruiters.com/v1/companies/%s/postings?offset=%d&limit=%d",
			s.companyID, offset, smartRecruitersPageSize)
		data, err := s.client.Get(ctx, url)
		if err != nil {
			return nil, err
		}

		var page smartRecruitersPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, errors.Wrap(err, "decode smartrecruiters response")
		}

		for _, item := range page.Content {
			var parts []string
			for _, v := range []string{item.Location.City, item.Location.Country} {
				if v != "" {
					parts = append(parts, v)
				}
			}

			postings = append(postings, job.Posting{
				UID:         job.DeriveIdentity(s.group, job.IdentityFields{RawID: item.ID, URL: item.RefURL}),
				SourceGroup: s.group,
				SourceName:  s.name,
				Title:       item.Name,
				Company:     s.company,
				Location:    strings.Join(parts, ", "),
				URL:         item.RefURL,
				RawID:       item.ID,
			})
		}

		if offset+smartRecruitersPageSize >= page.TotalFound || len(page.Content) == 0 {
			break
		}
	}

	return postings, nil
}
