package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ComplianceRadar/internal/config"
	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/source"
)

// SFC ingests announcements from the SFC eDistribution search API: a paged
// POST search filtered by year/month, with content fetched as a second call
// whose JSON payload embeds an HTML fragment.
type SFC struct {
	baseURL  string
	language string
	pageSize int
	client   *http.Client
	ua       string
	logger   *slog.Logger
}

var _ source.Adapter = (*SFC)(nil)

// NewSFC wires the adapter from configuration.
func NewSFC(cfg config.SFCSourceConfig, httpCfg config.HTTPConfig, client *http.Client, logger *slog.Logger) *SFC {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	language := cfg.Language
	if language == "" {
		language = "TC"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SFC{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		language: language,
		pageSize: pageSize,
		client:   httpClientOrDefault(client),
		ua:       httpCfg.UserAgent,
		logger:   logger,
	}
}

// Name identifies the adapter inside the registry.
func (s *SFC) Name() string { return "sfc" }

// Source reports the canonical source tag.
func (s *SFC) Source() domain.Source { return domain.SourceSFC }

type sfcSearchRequest struct {
	Lang     string `json:"lang"`
	Category string `json:"category"`
	Year     string `json:"year"`
	Month    string `json:"month"`
	PageNo   int    `json:"pageNo"`
	PageSize int    `json:"pageSize"`
}

type sfcSearchResponse struct {
	Items []sfcSearchItem `json:"items"`
	Total int             `json:"total"`
}

type sfcSearchItem struct {
	NewsRefNo string `json:"newsRefNo"`
	IssueDate string `json:"issueDate"`
	Title     string `json:"title"`
	Lang      string `json:"lang"`
}

// Listing searches every year/month window covered by [from, to] and
// returns the items whose issue dates fall inside the range. A transport
// failure is recovered as an empty listing.
func (s *SFC) Listing(ctx context.Context, from, to time.Time) ([]source.RawItem, error) {
	var items []source.RawItem

	for _, window := range monthWindows(from, to) {
		for pageNo := 0; ; pageNo++ {
			page, err := s.searchPage(ctx, window, pageNo)
			if err != nil {
				s.logger.Warn("sfc search failed, treating as empty listing",
					"year", window.year, "month", window.month, "page", pageNo, "error", err)
				return items, nil
			}

			for _, raw := range page.Items {
				item, err := s.toRawItem(raw)
				if err != nil {
					s.logger.Warn("skipping malformed sfc item", "refNo", raw.NewsRefNo, "error", err)
					continue
				}
				if item.InRange(from, to) {
					items = append(items, item)
				}
			}

			if len(page.Items) < s.pageSize {
				break
			}
		}
	}

	return items, nil
}

func (s *SFC) searchPage(ctx context.Context, window yearMonth, pageNo int) (*sfcSearchResponse, error) {
	payload := sfcSearchRequest{
		Lang:     s.language,
		Category: "all",
		Year:     fmt.Sprintf("%d", window.year),
		Month:    fmt.Sprintf("%02d", window.month),
		PageNo:   pageNo,
		PageSize: s.pageSize,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.ua)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", domain.ErrTransientFetch, resp.Status)
	}

	var decoded sfcSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &decoded, nil
}

func (s *SFC) toRawItem(raw sfcSearchItem) (source.RawItem, error) {
	if raw.Title == "" || raw.NewsRefNo == "" {
		return source.RawItem{}, &domain.RecordParseError{Source: domain.SourceSFC, Reason: "missing title or refNo"}
	}

	lang := raw.Lang
	if lang == "" {
		lang = s.language
	}

	item := source.RawItem{
		Title:        raw.Title,
		URL:          fmt.Sprintf("%s/content?refNo=%s&lang=%s", s.baseURL, raw.NewsRefNo, lang),
		RawDateToken: raw.IssueDate,
		Category:     "news",
	}

	// The API reports issueDate as an ISO datetime; only the calendar
	// date matters.
	if len(raw.IssueDate) >= len(dateutil.ISODate) {
		if parsed, err := dateutil.ParseISO(raw.IssueDate[:len(dateutil.ISODate)]); err == nil {
			item.IssueDate = &parsed
		}
	}
	return item, nil
}

type sfcContentResponse struct {
	RefNo   string `json:"refNo"`
	Lang    string `json:"lang"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Content fetches the content endpoint and extracts the readable text from
// the HTML fragment embedded in the JSON payload.
func (s *SFC) Content(ctx context.Context, url string) (string, error) {
	resp, err := get(ctx, s.client, url, s.ua)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded sfcContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode content response: %w", err)
	}
	if decoded.Content == "" {
		return "", nil
	}
	return ExtractFragment(decoded.Content)
}

type yearMonth struct {
	year  int
	month time.Month
}

// monthWindows lists the calendar months touched by [from, to], bounded to
// keep a reversed range from looping.
func monthWindows(from, to time.Time) []yearMonth {
	var windows []yearMonth
	cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location())

	for !cursor.After(last) {
		windows = append(windows, yearMonth{year: cursor.Year(), month: cursor.Month()})
		cursor = cursor.AddDate(0, 1, 0)
	}
	if len(windows) == 0 {
		windows = append(windows, yearMonth{year: from.Year(), month: from.Month()})
	}
	return windows
}
