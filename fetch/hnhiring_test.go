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

func TestHNHiringFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>whoishiring jobs</title>
    <item>
      <title>Acme Corp | Senior Go Engineer | Remote (US)</title>
      <link>https://news.ycombinator.com/item?id=41000001</link>
      <description>&lt;p&gt;Acme Corp | Senior Go Engineer | Remote (US)&lt;/p&gt;&lt;p&gt;We build widgets.&lt;/p&gt;</description>
    </item>
    <item>
      <title></title>
      <link>https://news.ycombinator.com/item?id=41000002</link>
      <description>Tiny startup looking for help</description>
    </item>
  </channel>
</rss>`))
	}))
	defer srv.Close()

	f, err := NewHNHiring(config.SourceConfig{Name: "HN", FeedURL: srv.URL}, httpclient.New(time.Second))
	require.NoError(t, err)

	postings, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "hn", first.SourceGroup)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Senior Go Engineer", first.Title)
	assert.Contains(t, first.UID, "hn:url:")
	assert.Equal(t, "Acme Corp | Senior Go Engineer | Remote (US) We build widgets.", first.Snippet)

	// No title in the feed entry falls back to the description text
	second := postings[1]
	assert.Equal(t, "Tiny startup looking", second.Company)
}

func TestParseHNCompany(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Acme Corp | Backend Engineer | NYC", "Acme Corp"},
		{"Three word company hiring engineers now", "Three word company"},
		{"Solo", "Solo"},
		{"", "Unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseHNCompany(tc.text), "text %q", tc.text)
	}
}

func TestParseHNTitle(t *testing.T) {
	assert.Equal(t, "Backend Engineer", parseHNTitle("Acme Corp | Backend Engineer | NYC"))
	assert.Equal(t, "Acme Corp |", parseHNTitle("Acme Corp |"))
	assert.Equal(t, "HN Hiring Post", parseHNTitle(""))

	long := parseHNTitle("Acme is hiring for a very long role title that keeps going and going and going and going and going and going past the cap")
	assert.Len(t, long, 100)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world again",
		stripHTML("<p>Hello <b>world</b></p>\n<p>again</p>"))
	assert.Equal(t, "plain text", stripHTML("plain text"))
}
