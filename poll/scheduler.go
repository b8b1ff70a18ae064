// Package poll drives the polling loop: on each tick it runs the fetchers
// whose interval has elapsed, then pipes their postings through dedupe,
// filtering, and notification.
package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/db"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/fetch"
	"github.com/ncurl/jobwatch/filter"
	"github.com/ncurl/jobwatch/job"
	"github.com/ncurl/jobwatch/notify"
	"github.com/ncurl/jobwatch/seen"
)

const maxTick = 60 * time.Second

type task struct {
	fetcher  fetch.Fetcher
	interval time.Duration
	key      string
}

// Scheduler owns the control loop. The lastRun map is touched only by the
// control loop goroutine; worker goroutines fetch and hand results back over
// a channel, so the seen store is the only resource they share.
type Scheduler struct {
	tasks    []task
	store    *seen.Store
	notifier notify.Notifier
	filters  *config.FilterConfig

	fetchTimeout  time.Duration
	maxConcurrent int
	tick          time.Duration

	lastRun map[string]time.Time
	now     func() time.Time
	log     *zap.SugaredLogger
}

// New builds a scheduler over the instantiated fetchers. The tick cadence is
// the smallest configured interval, capped at one minute.
func New(cfg *config.AppConfig, built []fetch.Built, store *seen.Store, notifier notify.Notifier, log *zap.SugaredLogger) *Scheduler {
	tick := maxTick
	tasks := make([]task, 0, len(built))
	for _, b := range built {
		interval := time.Duration(b.IntervalSeconds) * time.Second
		if interval < tick {
			tick = interval
		}
		tasks = append(tasks, task{
			fetcher:  b.Fetcher,
			interval: interval,
			key:      b.Fetcher.SourceGroup() + "/" + b.Fetcher.SourceName(),
		})
	}

	return &Scheduler{
		tasks:         tasks,
		store:         store,
		notifier:      notifier,
		filters:       &cfg.Filtering,
		fetchTimeout:  time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		maxConcurrent: cfg.MaxConcurrentFetches,
		tick:          tick,
		lastRun:       make(map[string]time.Time),
		now:           time.Now,
		log:           log,
	}
}

// Run blocks until ctx is cancelled or the seen store fails. A cycle runs
// immediately at startup; cancellation is observed between cycles, so an
// in-flight cycle always finishes its commits before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Infow("Scheduler started",
		"tasks", len(s.tasks),
		"tick", s.tick)

	if err := s.RunCycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Infow("Scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				return err
			}
		}
	}
}

type fetchResult struct {
	task     *task
	postings []job.Posting
}

// RunCycle runs all currently-due tasks through a bounded worker pool and
// processes their results in completion order. It returns an error only on
// seen-store failure, which is fatal to the process: losing dedupe state
// silently would mean duplicate notification storms.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	due := s.dueTasks(s.now())
	if len(due) == 0 {
		return nil
	}

	results := make(chan fetchResult, len(due))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for _, t := range due {
		// Dispatch time, not completion time, so slow fetches don't drift
		// the schedule
		s.lastRun[t.key] = s.now()

		wg.Add(1)
		go func(t *task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()

			results <- fetchResult{task: t, postings: fetch.Safe(fctx, t.fetcher, s.log)}
		}(t)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	notified := 0
	var fatal error
	for res := range results {
		if fatal != nil {
			continue // drain so workers can exit
		}
		for i := range res.postings {
			sent, err := s.processPosting(&res.postings[i])
			if err != nil {
				fatal = err
				break
			}
			if sent {
				notified++
			}
		}
	}
	if fatal != nil {
		return s.storeFailure(ctx, fatal)
	}

	total, err := s.store.Count()
	if err != nil {
		return s.storeFailure(ctx, errors.Wrap(err, "count seen postings"))
	}
	s.log.Infow("Cycle complete",
		"sources_polled", len(due),
		"notifications_sent", notified,
		"seen_total", total)
	return nil
}

// storeFailure classifies a seen-store error. A database closed while the
// scheduler is being cancelled is part of ordinary shutdown, not a storage
// failure; anything else stays fatal.
func (s *Scheduler) storeFailure(ctx context.Context, err error) error {
	if db.IsDatabaseClosed(err) && ctx.Err() != nil {
		s.log.Infow("Seen store closed during shutdown")
		return nil
	}
	return err
}

func (s *Scheduler) dueTasks(now time.Time) []*task {
	var due []*task
	for i := range s.tasks {
		t := &s.tasks[i]
		last, ran := s.lastRun[t.key]
		if !ran || now.Sub(last) >= t.interval {
			due = append(due, t)
		}
	}
	return due
}

// processPosting takes one posting through dedupe, filter, and notification.
// A posting is committed to the seen set when it has been fully handled:
// either notified, or rejected by the filter (so it is never re-evaluated).
// A failed notification is deliberately NOT committed — the posting comes
// back as unseen next cycle, which is the retry mechanism.
func (s *Scheduler) processPosting(p *job.Posting) (bool, error) {
	if p.UID == "" {
		p.UID = job.DeriveIdentity(p.SourceGroup, job.IdentityFields{
			RawID:    p.RawID,
			URL:      p.URL,
			Title:    p.Title,
			Company:  p.Company,
			Location: p.Location,
			PostedAt: p.PostedAt,
		})
	}

	alreadySeen, err := s.store.IsSeen(p.UID)
	if err != nil {
		return false, errors.Wrap(err, "seen lookup")
	}
	if alreadySeen {
		return false, nil
	}

	decision := filter.Evaluate(p, s.filters)
	if !decision.Relevant {
		if err := s.store.MarkSeen(p.UID, p.SourceGroup, p.URL); err != nil {
			return false, errors.Wrap(err, "mark filtered posting seen")
		}
		return false, nil
	}

	if !s.notifier.Notify(p, decision.MatchedKeywords) {
		s.log.Warnw("Notification failed, posting will retry next cycle",
			"uid", p.UID,
			"title", p.Title,
			"source_group", p.SourceGroup)
		return false, nil
	}

	if err := s.store.MarkSeen(p.UID, p.SourceGroup, p.URL); err != nil {
		return false, errors.Wrap(err, "mark notified posting seen")
	}
	return true, nil
}
