package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/internal/httpclient"
)

const newGradReadme = `# New Grad Positions

Some intro text.

| Company | Role | Location | Application |
| ------- | ---- | -------- | ----------- |
| [Acme Corp](https://acme.example) | Software Engineer, New Grad | Remote | [Apply](https://acme.example/apply/123) |
| Globex <sub>2026</sub> | Backend Engineer | Austin, TX | https://globex.example/jobs/42 |
| No Link Inc | Engineer | NYC | Closed |

Text between tables.

| Position | Company | Link |
| :---: | :---: | :---: |
| Data Engineer | Initech | [Apply](https://initech.example/jobs/7) |
`

func newMarkdownForTest(t *testing.T, sc config.SourceConfig) *NewGradMarkdown {
	t.Helper()
	f, err := NewNewGradMarkdown(sc, httpclient.New(time.Second))
	require.NoError(t, err)
	return f.(*NewGradMarkdown)
}

func TestNewNewGradMarkdownRequiresRepoAndFiles(t *testing.T) {
	_, err := NewNewGradMarkdown(config.SourceConfig{Owner: "speedyapply"}, httpclient.New(time.Second))
	assert.Error(t, err)

	_, err = NewNewGradMarkdown(config.SourceConfig{
		Owner: "speedyapply", Repo: "2026-SWE-College-Jobs",
	}, httpclient.New(time.Second))
	assert.Error(t, err, "files list is required")
}

func TestNewGradMarkdownParsesTables(t *testing.T) {
	n := newMarkdownForTest(t, config.SourceConfig{
		Owner: "speedyapply", Repo: "2026-SWE-College-Jobs", Files: []string{"README.md"},
	})

	postings := n.parseMarkdownTables(newGradReadme)
	require.Len(t, postings, 3, "the linkless row is skipped")

	first := postings[0]
	assert.Equal(t, "Acme Corp", first.Company, "markdown link stripped to text")
	assert.Equal(t, "Software Engineer, New Grad", first.Title)
	assert.Equal(t, "Remote", first.Location)
	assert.Equal(t, "https://acme.example/apply/123", first.URL)
	assert.Contains(t, first.UID, "newgrad:url:")

	second := postings[1]
	assert.Equal(t, "Globex 2026", second.Company, "html tags stripped")
	assert.Equal(t, "https://globex.example/jobs/42", second.URL, "bare URL cell")

	// Second table with a different column order still maps by header
	third := postings[2]
	assert.Equal(t, "Initech", third.Company)
	assert.Equal(t, "Data Engineer", third.Title)
	assert.Equal(t, "https://initech.example/jobs/7", third.URL)
}

func TestNewGradMarkdownUntitledRow(t *testing.T) {
	n := newMarkdownForTest(t, config.SourceConfig{
		Owner: "o", Repo: "r", Files: []string{"README.md"},
	})

	postings := n.parseMarkdownTables(`
| Company | Role | Apply |
| --- | --- | --- |
| Acme | | [Apply](https://acme.example/1) |
`)
	require.Len(t, postings, 1)
	assert.Equal(t, "Unknown Position", postings[0].Title)
}

func TestNewGradMarkdownFetchesEachFile(t *testing.T) {
	n := newMarkdownForTest(t, config.SourceConfig{
		Name: "Speedy", Owner: "speedyapply", Repo: "jobs", Branch: "main",
		Files: []string{"README.md", "INTERNSHIPS.md"},
	})
	assert.Equal(t, []string{"README.md", "INTERNSHIPS.md"}, n.files)
	assert.Equal(t, "main", n.branch)
	assert.Equal(t, "newgrad", n.SourceGroup())
}

func TestBuildNewGradMarkdown(t *testing.T) {
	cfg := &config.AppConfig{
		PollIntervalSeconds: 600,
		Sources: map[string][]config.SourceConfig{
			"newgrad_markdown": {{Owner: "speedyapply", Repo: "jobs", Files: []string{"README.md"}}},
		},
	}
	built, err := Build(cfg, httpclient.New(time.Second))
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, "speedyapply/jobs", built[0].Fetcher.SourceName())
}
