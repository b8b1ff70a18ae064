package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/job"
)

const (
	notifyTimeout   = 15 * time.Second
	maxSendAttempts = 4
	sendBackoffBase = 2 * time.Second
	sendBackoffMax  = 30 * time.Second

	// defaultCooldown suppresses further sends to a webhook after a 429
	// when Discord gives no Retry-After.
	defaultCooldown = 30 * time.Second

	// Discord allows ~30 webhook requests/min; pace well under that.
	webhookRate  = rate.Limit(0.5) // one send per 2s per webhook
	webhookBurst = 3
)

// Discord posts job embeds to Discord webhooks resolved through the routing
// table. Rate-limit state (per-webhook pacing and 429 cooldowns) is owned by
// the instance so tests can construct isolated notifiers.
type Discord struct {
	cfg    *config.AppConfig
	log    *zap.SugaredLogger
	client *http.Client
	dryRun bool

	mu            sync.Mutex
	limiters      map[string]*rate.Limiter
	cooldownUntil map[string]time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewDiscord creates a Discord webhook notifier. Dry-run mode logs intent
// instead of delivering.
func NewDiscord(cfg *config.AppConfig, dryRun bool, log *zap.SugaredLogger) *Discord {
	return &Discord{
		cfg:           cfg,
		log:           log,
		client:        &http.Client{Timeout: notifyTimeout},
		dryRun:        dryRun,
		limiters:      make(map[string]*rate.Limiter),
		cooldownUntil: make(map[string]time.Time),
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Notify posts an embed for the posting. Returns true when delivered or
// suppressed by dry-run, false on any failure. Never panics.
func (d *Discord) Notify(p *job.Posting, matchedKeywords []string) bool {
	if d.dryRun {
		d.log.Infow("[DRY RUN] Would notify",
			"company", p.Company,
			"title", p.Title,
			"url", p.URL)
		return true
	}

	webhookURL, err := d.cfg.WebhookURL(p.SourceGroup)
	if err != nil {
		d.log.Warnw("No webhook URL for source group, skipping",
			"source_group", p.SourceGroup,
			"error", err)
		return false
	}

	if remaining := d.cooldownRemaining(webhookURL); remaining > 0 {
		d.log.Warnw("Webhook in rate-limit cooldown, skipping",
			"source_group", p.SourceGroup,
			"remaining", remaining.Round(time.Second))
		return false
	}

	// Pace sends per webhook
	if err := d.limiter(webhookURL).Wait(context.Background()); err != nil {
		return false
	}

	payload, err := json.Marshal(webhookPayload{Embeds: []embed{buildEmbed(p, matchedKeywords)}})
	if err != nil {
		d.log.Errorw("Failed to marshal webhook payload", "uid", p.UID, "error", err)
		return false
	}

	if err := d.sendWithRetry(webhookURL, payload); err != nil {
		d.log.Errorw("Failed to send notification",
			"uid", p.UID,
			"source_group", p.SourceGroup,
			"error", err)
		return false
	}

	return true
}

// sendWithRetry POSTs the payload, retrying on 429 and 5xx with exponential
// backoff. A 429 also arms the per-webhook cooldown so subsequent postings
// this cycle skip the endpoint instead of hammering it.
func (d *Discord) sendWithRetry(webhookURL string, payload []byte) error {
	backoff := sendBackoffBase
	var lastErr error

	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if attempt > 1 {
			d.sleep(backoff)
			backoff *= 2
			if backoff > sendBackoffMax {
				backoff = sendBackoffMax
			}
		}

		retryable, err := d.send(webhookURL, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}

func (d *Discord) send(webhookURL string, payload []byte) (retryable bool, err error) {
	resp, err := d.client.Post(webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return true, errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		cooldown := retryAfter(resp)
		d.armCooldown(webhookURL, cooldown)
		d.log.Warnw("Discord rate limited", "retry_after", cooldown)
		return true, errors.Wrapf(errors.ErrRateLimited, "webhook returned 429")
	case resp.StatusCode >= 500:
		return true, errors.Newf("discord server error %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return false, errors.Newf("discord rejected payload with status %d", resp.StatusCode)
	}

	return false, nil
}

// retryAfter reads the Retry-After header, falling back to the default
// cooldown when absent or unparseable.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultCooldown
}

func (d *Discord) limiter(webhookURL string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	lim, ok := d.limiters[webhookURL]
	if !ok {
		lim = rate.NewLimiter(webhookRate, webhookBurst)
		d.limiters[webhookURL] = lim
	}
	return lim
}

func (d *Discord) armCooldown(webhookURL string, cooldown time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until := d.now().Add(cooldown)
	if until.After(d.cooldownUntil[webhookURL]) {
		d.cooldownUntil[webhookURL] = until
	}
}

func (d *Discord) cooldownRemaining(webhookURL string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.cooldownUntil[webhookURL]
	if !ok {
		return 0
	}
	remaining := until.Sub(d.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
