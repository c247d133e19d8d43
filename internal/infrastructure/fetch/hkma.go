package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"ComplianceRadar/internal/config"
	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/source"
)

// HKMA ingests press releases from the HKMA open-data API: a GET with an
// explicit from/to date filter whose response wraps records in a
// success-flag envelope. Content pages are plain HTML.
type HKMA struct {
	baseURL  string
	language string
	client   *http.Client
	ua       string
	logger   *slog.Logger
}

var _ source.Adapter = (*HKMA)(nil)

// NewHKMA wires the adapter from configuration.
func NewHKMA(cfg config.HKMASourceConfig, httpCfg config.HTTPConfig, client *http.Client, logger *slog.Logger) *HKMA {
	language := cfg.Language
	if language == "" {
		language = "tc"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HKMA{
		baseURL:  cfg.BaseURL,
		language: language,
		client:   httpClientOrDefault(client),
		ua:       httpCfg.UserAgent,
		logger:   logger,
	}
}

// Name identifies the adapter inside the registry.
func (h *HKMA) Name() string { return "hkma" }

// Source reports the canonical source tag.
func (h *HKMA) Source() domain.Source { return domain.SourceHKMA }

type hkmaResponse struct {
	Header hkmaHeader `json:"header"`
	Result hkmaResult `json:"result"`
}

type hkmaHeader struct {
	Success bool   `json:"success"`
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

type hkmaResult struct {
	Records []hkmaRecord `json:"records"`
}

type hkmaRecord struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Date  string `json:"date"`
}

// Listing queries the press-release API for [from, to]. A non-success
// envelope or a transport failure yields an empty listing, not an error.
func (h *HKMA) Listing(ctx context.Context, from, to time.Time) ([]source.RawItem, error) {
	query := url.Values{}
	query.Set("offset", "0")
	query.Set("lang", h.language)
	query.Set("choose", "date")
	query.Set("from", dateutil.FormatISO(from))
	query.Set("to", dateutil.FormatISO(to))

	resp, err := get(ctx, h.client, h.baseURL+"?"+query.Encode(), h.ua)
	if err != nil {
		h.logger.Warn("hkma listing failed, treating as empty", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	var decoded hkmaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode hkma response: %w", err)
	}

	if !decoded.Header.Success {
		h.logger.Error("hkma api returned error envelope",
			"code", decoded.Header.ErrCode, "message", decoded.Header.ErrMsg)
		return nil, nil
	}

	items := make([]source.RawItem, 0, len(decoded.Result.Records))
	for _, record := range decoded.Result.Records {
		if record.Title == "" || record.Link == "" {
			h.logger.Warn("skipping malformed hkma record", "title", record.Title)
			continue
		}

		item := source.RawItem{
			Title:        record.Title,
			URL:          record.Link,
			RawDateToken: record.Date,
			Category:     "press-release",
		}
		if parsed, err := dateutil.ParseISO(record.Date); err == nil {
			item.IssueDate = &parsed
		}
		items = append(items, item)
	}

	return items, nil
}

// Content fetches the press-release page and extracts the text of its
// content wrapper.
func (h *HKMA) Content(ctx context.Context, pageURL string) (string, error) {
	resp, err := get(ctx, h.client, pageURL, h.ua)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return ExtractHKMA(resp.Body)
}
