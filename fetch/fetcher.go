// Package fetch contains the fetcher contract and the per-source fetcher
// implementations that produce normalized postings from upstream job boards.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/job"
)

// Fetcher produces normalized postings from one upstream source.
// Fetch may fail on transient upstream problems; the scheduler only ever
// calls it through Safe.
type Fetcher interface {
	// SourceGroup is the coarse category used for webhook routing.
	SourceGroup() string
	// SourceName is the human label of this fetcher instance.
	SourceName() string
	Fetch(ctx context.Context) ([]job.Posting, error)
}

// Safe wraps Fetch with error and panic recovery: a failed fetch contributes
// zero postings this cycle and is logged at warn level, never propagated.
func Safe(ctx context.Context, f Fetcher, log *zap.SugaredLogger) []job.Posting {
	postings, err := func() (ps []job.Posting, err error) {
		defer func() {
			if r := recover(); r != nil {
				ps = nil
				err = errPanic(r)
			}
		}()
		return f.Fetch(ctx)
	}()

	if err != nil {
		log.Warnw("Fetch failed",
			"source_group", f.SourceGroup(),
			"source_name", f.SourceName(),
			"error", err)
		return nil
	}

	log.Infow("Fetched postings",
		"source_name", f.SourceName(),
		"count", len(postings))
	return postings
}

func errPanic(r interface{}) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "fetcher panicked")
	}
	return errors.Newf("fetcher panicked: %v", r)
}

// parseISOTime parses an RFC3339-ish timestamp, tolerating a bare date.
// Returns nil on failure; missing postedAt is legal and common.
func parseISOTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}
