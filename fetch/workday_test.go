package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/internal/httpclient"
)

func TestNewWorkdayRequiresBaseURL(t *testing.T) {
	_, err := NewWorkday(config.SourceConfig{Name: "acme"}, httpclient.New(time.Second))
	assert.Error(t, err)
}

func TestWorkdayFetchPaginates(t *testing.T) {
	const total = workdayPageSize + 5

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req workdayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		count := workdayPageSize
		if req.Offset+count > total {
			count = total - req.Offset
		}

		page := map[string]interface{}{"total": total}
		var items []map[string]interface{}
		for i := 0; i < count; i++ {
			n := req.Offset + i
			items = append(items, map[string]interface{}{
				"title":         fmt.Sprintf("Role %d", n),
				"externalPath":  fmt.Sprintf("/job/role-%d", n),
				"locationsText": "Austin, TX",
				"postedOn":      "2025-05-20",
				"bulletFields":  []string{"R-100"},
			})
		}
		page["jobPostings"] = items
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	f, err := NewWorkday(config.SourceConfig{
		Name:    "Acme Workday",
		Company: "Acme",
		BaseURL: srv.URL + "/wday/cxs/acme/External/jobs",
	}, httpclient.New(time.Second))
	require.NoError(t, err)

	postings, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, total)

	p := postings[0]
	assert.Equal(t, "Role 0", p.Title)
	assert.Equal(t, srv.URL+"/External/job/role-0", p.URL)
	assert.Contains(t, p.UID, "workday:url:")
	assert.Equal(t, "Austin, TX", p.Location)
	assert.Equal(t, "R-100", p.Snippet)

	// Every page item got a distinct URL-derived UID
	seen := map[string]bool{}
	for _, p := range postings {
		assert.False(t, seen[p.UID], "duplicate UID %s", p.UID)
		seen[p.UID] = true
	}
}

func TestWorkdayJobBoardBase(t *testing.T) {
	f, err := NewWorkday(config.SourceConfig{
		BaseURL: "https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/External/jobs",
	}, httpclient.New(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "https://acme.wd5.myworkdayjobs.com/External", f.(*Workday).jobBoardBase)
}
