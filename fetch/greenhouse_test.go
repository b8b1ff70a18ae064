package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/internal/httpclient"
)

func TestNewGreenhouseRequiresBoardToken(t *testing.T) {
	_, err := NewGreenhouse(config.SourceConfig{Name: "acme"}, httpclient.New(time.Second))
	assert.Error(t, err)
}

func TestGreenhouseFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boards/acme/jobs", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("content"))
		w.Write([]byte(`{"jobs": [
			{"id": 4567, "title": "Backend Engineer", "absolute_url": "https://boards.greenhouse.io/acme/jobs/4567",
			 "updated_at": "2025-06-01T12:00:00Z", "location": {"name": "Remote - US"}},
			{"id": 0, "title": "Untracked Role", "absolute_url": "https://boards.greenhouse.io/acme/jobs/legacy"}
		]}`))
	}))
	defer srv.Close()

	f, err := NewGreenhouse(config.SourceConfig{Name: "Acme", BoardToken: "acme", Company: "Acme Corp"},
		httpclient.New(time.Second))
	require.NoError(t, err)
	f.(*Greenhouse).apiBase = srv.URL

	postings, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "greenhouse:4567", first.UID)
	assert.Equal(t, "greenhouse", first.SourceGroup)
	assert.Equal(t, "Backend Engineer", first.Title)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Remote - US", first.Location)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, 2025, first.PostedAt.Year())

	// Missing numeric ID falls back to URL-derived identity
	second := postings[1]
	assert.Empty(t, second.RawID)
	assert.Contains(t, second.UID, "greenhouse:url:")
}

func TestGreenhouseCompanyDefaultsToBoardToken(t *testing.T) {
	f, err := NewGreenhouse(config.SourceConfig{BoardToken: "acme"}, httpclient.New(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "acme", f.(*Greenhouse).company)
}
