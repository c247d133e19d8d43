// Package urlcanon rebuilds public browsing links from the internal
// content-API links stored alongside ingested records.
package urlcanon

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"ComplianceRadar/internal/domain"
)

const (
	canonicalBase   = "https://apps.sfc.hk/edistributionWeb"
	apiBaseSegment  = "/edistributionWeb"
	defaultLanguage = "TC"
)

// gatewayPaths maps API sub-resource types to their public path segments.
// Types absent here pass through unchanged; see Canonicalizer.PublicURL.
var gatewayPaths = map[string]string{
	"news":     "news-and-announcements/news",
	"circular": "circulars",
}

// Canonicalizer converts SFC content-API URLs to public gateway URLs.
type Canonicalizer struct {
	logger *slog.Logger
}

// New wires an optional logger for pass-through diagnostics.
func New(logger *slog.Logger) *Canonicalizer {
	return &Canonicalizer{logger: logger}
}

// PublicURL maps an internal content-API URL to the public gateway URL.
// Mirror prefixes (e.g. a TuniS CDN host) in front of the API base are
// accepted; the output is always rebuilt on the canonical origin. An
// unrecognized sub-resource type is not an error: the original URL is
// returned unchanged so new API types keep working end to end.
//
//	.../edistributionWeb/api/news/content?refNo=25PR99&lang=TC
//	  -> https://apps.sfc.hk/edistributionWeb/gateway/TC/news-and-announcements/news/doc?refNo=25PR99
func (c *Canonicalizer) PublicURL(apiURL string) (string, error) {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return "", &domain.URLFormatError{URL: apiURL, Reason: err.Error()}
	}

	before, after, found := strings.Cut(parsed.Path, "/api")
	if !strings.HasSuffix(before, apiBaseSegment) {
		return "", &domain.URLFormatError{URL: apiURL, Reason: "path does not contain the " + apiBaseSegment + " API base"}
	}

	query := parsed.Query()
	refNo := query.Get("refNo")
	if refNo == "" {
		return "", &domain.URLFormatError{URL: apiURL, Reason: "missing refNo parameter"}
	}

	lang := query.Get("lang")
	if lang == "" {
		lang = defaultLanguage
	}

	var apiType string
	if found {
		segments := strings.Split(strings.TrimPrefix(after, "/"), "/")
		apiType = segments[0]
	}

	gatewayPath, ok := gatewayPaths[apiType]
	if !ok {
		c.debug("unmapped api type, returning url unchanged", "type", apiType, "url", apiURL)
		return apiURL, nil
	}

	return fmt.Sprintf("%s/gateway/%s/%s/doc?refNo=%s", canonicalBase, lang, gatewayPath, refNo), nil
}

func (c *Canonicalizer) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
