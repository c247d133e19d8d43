package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"ComplianceRadar/internal/config"
	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/source"
)

// SEC ingests press releases from the SEC RSS feed. Entry timestamps are
// RFC-822-style with a UTC offset; entries whose timestamp does not parse
// keep their raw date text instead of being dropped. The SEC site
// intermittently answers content fetches with 403, so those are retried a
// bounded number of times with a fixed delay before the item is marked
// content-less.
type SEC struct {
	feedURL  string
	attempts int
	delay    time.Duration
	client   *http.Client
	ua       string
	logger   *slog.Logger
}

var _ source.Adapter = (*SEC)(nil)

// NewSEC wires the adapter from configuration.
func NewSEC(cfg config.SECSourceConfig, httpCfg config.HTTPConfig, client *http.Client, logger *slog.Logger) *SEC {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SEC{
		feedURL:  cfg.FeedURL,
		attempts: attempts,
		delay:    delay,
		client:   httpClientOrDefault(client),
		ua:       httpCfg.UserAgent,
		logger:   logger,
	}
}

// Name identifies the adapter inside the registry.
func (s *SEC) Name() string { return "sec" }

// Source reports the canonical source tag.
func (s *SEC) Source() domain.Source { return domain.SourceSEC }

// Listing parses the feed and returns entries within [from, to]. Entries
// without a normalized date are kept. Fetch and parse failures are
// recovered as an empty listing.
func (s *SEC) Listing(ctx context.Context, from, to time.Time) ([]source.RawItem, error) {
	parser := gofeed.NewParser()
	parser.Client = s.client
	parser.UserAgent = s.ua

	feed, err := parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		s.logger.Warn("sec feed fetch failed, treating as empty listing", "error", err)
		return nil, nil
	}

	items := make([]source.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Title == "" || entry.Link == "" {
			s.logger.Warn("skipping malformed sec entry", "title", entry.Title)
			continue
		}

		item := source.RawItem{
			Title:        entry.Title,
			URL:          entry.Link,
			RawDateToken: entry.Published,
			Category:     "press-release",
		}
		if len(entry.Categories) > 0 {
			item.Category = entry.Categories[0]
		}

		if parsed, err := dateutil.ParseFeedTimestamp(entry.Published); err == nil {
			item.IssueDate = &parsed
		} else if entry.Published != "" {
			s.logger.Warn("sec entry date did not normalize, keeping raw token",
				"date", entry.Published, "title", entry.Title)
		}

		if item.InRange(from, to) {
			items = append(items, item)
		}
	}

	return items, nil
}

// Content fetches the press-release page, retrying transiently-forbidden
// responses. When the retry bound is exhausted the item is content-less,
// not failed.
func (s *SEC) Content(ctx context.Context, url string) (string, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", s.ua)

		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.Warn("sec content fetch failed", "attempt", attempt, "url", url, "error", err)
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			text, err := ExtractSEC(resp.Body)
			resp.Body.Close()
			return text, err
		case http.StatusForbidden:
			resp.Body.Close()
			s.logger.Warn("sec content access forbidden, retrying",
				"attempt", attempt, "of", s.attempts, "url", url)
		default:
			status := resp.Status
			resp.Body.Close()
			s.logger.Warn("sec content fetch returned unexpected status", "status", status, "url", url)
			return "", nil
		}
	}

	s.logger.Warn("sec content retries exhausted, marking item content-less", "url", url)
	return "", nil
}
