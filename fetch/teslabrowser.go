package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/ncurl/jobwatch/config"
	"github.com/ncurl/jobwatch/errors"
	"github.com/ncurl/jobwatch/internal/httpclient"
	"github.com/ncurl/jobwatch/job"
)

const (
	defaultTeslaCareersURL = "https://www.tesla.com/careers/search"
	defaultBrowserTimeout  = 30 * time.Second
	defaultMaxBrowserJobs  = 100
)

// TeslaBrowser fetches Tesla job listings by rendering the careers page in
// a headless browser. The page sits behind Akamai bot protection, so direct
// HTTP requests are blocked; a real browser session is the only reliable
// path. Requires Chrome/Chromium on the host.
type TeslaBrowser struct {
	source
	pageURL        string
	company        string
	timeout        time.Duration
	maxJobs        int
	filterKeywords []string
}

// NewTeslaBrowser builds the browser-automation fetcher. All settings are
// optional: url, timeout_seconds, max_jobs, filter_keywords.
func NewTeslaBrowser(sc config.SourceConfig, client *httpclient.Client) (Fetcher, error) {
	pageURL := sc.URL
	if pageURL == "" {
		pageURL = defaultTeslaCareersURL
	}
	timeout := defaultBrowserTimeout
	if sc.TimeoutSeconds > 0 {
		timeout = time.Duration(sc.TimeoutSeconds) * time.Second
	}
	maxJobs := sc.MaxJobs
	if maxJobs <= 0 {
		maxJobs = defaultMaxBrowserJobs
	}
	company := sc.Company
	if company == "" {
		company = "Tesla"
	}

	return &TeslaBrowser{
		source:         newSource("tesla", sc.Name, company, client),
		pageURL:        pageURL,
		company:        company,
		timeout:        timeout,
		maxJobs:        maxJobs,
		filterKeywords: sc.FilterKeywords,
	}, nil
}

func (t *TeslaBrowser) Fetch(ctx context.Context) ([]job.Posting, error) {
	html, err := t.renderPage(ctx)
	if err != nil {
		return nil, err
	}

	postings, err := t.extractPostings(html)
	if err != nil {
		return nil, err
	}

	if len(t.filterKeywords) > 0 {
		postings = t.applyKeywordFilter(postings)
	}
	if len(postings) > t.maxJobs {
		postings = postings[:t.maxJobs]
	}
	return postings, nil
}

// renderPage loads the careers page in headless Chrome and returns the
// rendered HTML after client-side scripts have populated the listings.
func (t *TeslaBrowser) renderPage(ctx context.Context) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, t.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(t.pageURL),
		chromedp.WaitReady("body"),
		// Listings render client-side after initial load
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", errors.Wrap(err, "browser rendering failed")
	}
	return html, nil
}

// extractPostings scrapes job cards out of the rendered page. Tesla's
// markup shifts between deploys, so this works off career links rather
// than a specific card class.
func (t *TeslaBrowser) extractPostings(html string) ([]job.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse rendered page")
	}

	seenURLs := make(map[string]bool)
	var postings []job.Posting

	doc.Find(`a[href*="/careers/search/job/"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = "https://www.tesla.com" + href
		}
		if seenURLs[href] {
			return
		}
		seenURLs[href] = true

		title := strings.TrimSpace(sel.Find(`[class*="title"], h2, h3, strong`).First().Text())
		if title == "" {
			title = strings.TrimSpace(strings.SplitN(sel.Text(), "\n", 2)[0])
		}
		if title == "" {
			return
		}

		location := strings.TrimSpace(sel.Find(`[class*="location"], [class*="city"]`).First().Text())

		postings = append(postings, job.Posting{
			UID:         job.DeriveIdentity(t.group, job.IdentityFields{URL: href}),
			SourceGroup: t.group,
			SourceName:  t.name,
			Title:       title,
			Company:     t.company,
			Location:    location,
			URL:         href,
		})
	})

	return postings, nil
}

// applyKeywordFilter keeps postings whose title matches any configured
// keyword. This is a coarse source-side cut; the real filter engine still
// runs downstream.
func (t *TeslaBrowser) applyKeywordFilter(postings []job.Posting) []job.Posting {
	var kept []job.Posting
	for _, p := range postings {
		title := strings.ToLower(p.Title)
		for _, kw := range t.filterKeywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				kept = append(kept, p)
				break
			}
		}
	}
	return kept
}
