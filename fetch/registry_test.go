package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/internal/httpclient"
)

func TestBuild(t *testing.T) {
	cfg := &config.AppConfig{
		PollIntervalSeconds: 600,
		Sources: map[string][]config.SourceConfig{
			"greenhouse": {
				{Name: "Acme", BoardToken: "acme"},
				{Name: "Globex", BoardToken: "globex", PollIntervalSeconds: 120},
			},
			"lever": {
				{Name: "Initech", Slug: "initech"},
			},
		},
	}

	built, err := Build(cfg, httpclient.New(time.Second))
	require.NoError(t, err)
	require.Len(t, built, 3)

	// Source types come out in sorted order
	assert.Equal(t, "Acme", built[0].Fetcher.SourceName())
	assert.Equal(t, "Globex", built[1].Fetcher.SourceName())
	assert.Equal(t, "Initech", built[2].Fetcher.SourceName())

	// Per-source interval overrides the global default
	assert.Equal(t, 600, built[0].IntervalSeconds)
	assert.Equal(t, 120, built[1].IntervalSeconds)
}

func TestBuildUnknownSourceType(t *testing.T) {
	cfg := &config.AppConfig{
		Sources: map[string][]config.SourceConfig{
			"monster": {{Name: "Monster"}},
		},
	}

	_, err := Build(cfg, httpclient.New(time.Second))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monster")
}

func TestBuildRejectsInvalidSource(t *testing.T) {
	cfg := &config.AppConfig{
		Sources: map[string][]config.SourceConfig{
			"greenhouse": {{Name: "No Token"}},
		},
	}

	_, err := Build(cfg, httpclient.New(time.Second))
	assert.Error(t, err)
}
