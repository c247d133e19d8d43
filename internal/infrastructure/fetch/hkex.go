package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ComplianceRadar/internal/config"
	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/source"
)

// Locale selects which HKEX listing page an adapter scrapes and how its
// split date tokens are read.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "zh"
)

// HKEX scrapes the regulatory-announcement listing page: repeated card
// rows each holding a split date (day ball plus month/year line) and a
// title+link pair. The English and Chinese pages share the structure but
// not the date convention.
type HKEX struct {
	pageURL string
	origin  string
	locale  Locale
	client  *http.Client
	ua      string
	logger  *slog.Logger
}

var _ source.Adapter = (*HKEX)(nil)

// NewHKEXEnglish scrapes the English listing page.
func NewHKEXEnglish(cfg config.HKEXSourceConfig, httpCfg config.HTTPConfig, client *http.Client, logger *slog.Logger) *HKEX {
	return newHKEX(cfg.EnglishURL, cfg, httpCfg, LocaleEnglish, client, logger)
}

// NewHKEXChinese scrapes the Chinese listing page, whose month tokens use
// Chinese numerals or an Arabic numeral with a trailing month ideograph.
func NewHKEXChinese(cfg config.HKEXSourceConfig, httpCfg config.HTTPConfig, client *http.Client, logger *slog.Logger) *HKEX {
	return newHKEX(cfg.ChineseURL, cfg, httpCfg, LocaleChinese, client, logger)
}

func newHKEX(pageURL string, cfg config.HKEXSourceConfig, httpCfg config.HTTPConfig, locale Locale, client *http.Client, logger *slog.Logger) *HKEX {
	if logger == nil {
		logger = slog.Default()
	}
	return &HKEX{
		pageURL: pageURL,
		origin:  strings.TrimSuffix(cfg.SiteOrigin, "/"),
		locale:  locale,
		client:  httpClientOrDefault(client),
		ua:      httpCfg.UserAgent,
		logger:  logger,
	}
}

// Name identifies the adapter inside the registry.
func (h *HKEX) Name() string { return "hkex-" + string(h.locale) }

// Source reports the canonical source tag.
func (h *HKEX) Source() domain.Source { return domain.SourceHKEX }

// Listing scrapes the announcement cards and returns those dated within
// [from, to]. A card missing any required sub-element is skipped on its
// own; one bad card never aborts the page parse. A transport failure is
// recovered as an empty listing.
func (h *HKEX) Listing(ctx context.Context, from, to time.Time) ([]source.RawItem, error) {
	doc, err := document(ctx, h.client, h.pageURL, h.ua)
	if err != nil {
		h.logger.Warn("hkex listing fetch failed, treating as empty", "locale", h.locale, "error", err)
		return nil, nil
	}

	var items []source.RawItem
	doc.Find("div.whats_on_tdy_row").Each(func(_ int, row *goquery.Selection) {
		item, ok := h.parseCard(row)
		if !ok {
			return
		}
		if item.InRange(from, to) {
			items = append(items, item)
		}
	})

	return items, nil
}

func (h *HKEX) parseCard(row *goquery.Selection) (source.RawItem, bool) {
	ball := row.Find("div.whats_on_tdy_ball").First()
	if ball.Length() == 0 {
		return source.RawItem{}, false
	}

	day := strings.TrimSpace(ball.Find("div.whats_on_tdy_ball_number div").First().Text())
	monthYear := strings.TrimSpace(ball.ChildrenFiltered("div").Eq(1).Text())
	if day == "" || monthYear == "" {
		h.logger.Debug("skipping hkex card without date tokens")
		return source.RawItem{}, false
	}

	issued, err := h.parseCardDate(day, monthYear)
	if err != nil {
		h.logger.Warn("skipping hkex card with unparsable date",
			"day", day, "monthYear", monthYear, "locale", h.locale)
		return source.RawItem{}, false
	}

	container := row.Find("div.whats_on_tdy_right div.whats_on_tdy_text_container").First()
	if container.Length() == 0 {
		return source.RawItem{}, false
	}

	category := strings.TrimSpace(container.Find("div.whats_on_tdy_text_1").First().Text())
	if category == "" {
		category = "Regulatory"
	}

	link := container.Find("div.whats_on_tdy_text_2 a").First()
	title := strings.TrimSpace(link.Text())
	href, hasHref := link.Attr("href")
	if title == "" || !hasHref || href == "" {
		h.logger.Debug("skipping hkex card without title link")
		return source.RawItem{}, false
	}

	if strings.HasPrefix(href, "/") {
		href = h.origin + href
	}

	return source.RawItem{
		Title:        title,
		URL:          href,
		RawDateToken: day + " " + monthYear,
		Category:     category,
		IssueDate:    &issued,
	}, true
}

func (h *HKEX) parseCardDate(day, monthYear string) (time.Time, error) {
	if h.locale == LocaleChinese {
		fields := strings.Fields(monthYear)
		if len(fields) != 2 {
			return time.Time{}, dateutil.ErrUnparsable
		}
		return dateutil.ParseSplitDate(day, fields[0], fields[1])
	}
	return dateutil.ParseGregorian(day + " " + monthYear)
}

// Content fetches the announcement page and extracts the main element's
// visible text.
func (h *HKEX) Content(ctx context.Context, url string) (string, error) {
	resp, err := get(ctx, h.client, url, h.ua)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return ExtractHKEX(resp.Body)
}
