package fetch

import (
	"sort"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
)

// Constructor builds a fetcher from its per-source configuration.
type Constructor func(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error)

// Registry maps a source-type name from the config file to its fetcher
// constructor. Adding a new source type means implementing Fetcher and
// adding one entry here.
var Registry = map[string]Constructor{
	"greenhouse":       NewGreenhouse,
	"lever":            NewLever,
	"ashby":            NewAshby,
	"workable":         NewWorkable,
	"smartrecruiters":  NewSmartRecruiters,
	"workday":          NewWorkday,
	"newgrad_json":     NewNewGradJSON,
	"newgrad_markdown": NewNewGradMarkdown,
	"hn_hiring":        NewHNHiring,
	"tesla_browser":    NewTeslaBrowser,
}

// Built pairs an instantiated fetcher with its effective poll interval.
type Built struct {
	Fetcher         Fetcher
	IntervalSeconds int
}

// Build instantiates every configured source through the registry. Source
// types with no registry entry are a configuration error; so is a source
// whose constructor rejects its settings.
func Build(cfg *config.AppConfig, client *httpclient.Client) ([]Built, error) {
	// Deterministic order keeps startup logs and tests stable
	types := make([]string, 0, len(cfg.Sources))
	for sourceType := range cfg.Sources {
		types = append(types, sourceType)
	}
	sort.Strings(types)

	var built []Built
	for _, sourceType := range types {
		ctor, ok := Registry[sourceType]
		if !ok {
			return nil, errors.NewInvalidConfigError("unknown source type %q", sourceType)
		}

		for i, sc := range cfg.Sources[sourceType] {
			f, err := ctor(sc, client)
			if err != nil {
				return nil, errors.Wrapf(err, "source %s[%d]", sourceType, i)
			}

			interval := sc.PollIntervalSeconds
			if interval == 0 {
				interval = cfg.PollIntervalSeconds
			}
			built = append(built, Built{Fetcher: f, IntervalSeconds: interval})
		}
	}

	return built, nil
}
