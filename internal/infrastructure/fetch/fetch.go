// Package fetch contains the per-source adapters that turn heterogeneous
// upstream listings (JSON search APIs, an XML feed, HTML card pages) into
// raw items and per-item content.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ComplianceRadar/internal/domain"
)

const defaultTimeout = 30 * time.Second

// httpClientOrDefault guards against nil injection in tests and wiring.
func httpClientOrDefault(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: defaultTimeout}
	}
	return client
}

// get issues a GET with the site user agent. Transport failures and error
// statuses come back wrapped in domain.ErrTransientFetch so callers can
// recover them as soft failures.
func get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		status := resp.Status
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %s", domain.ErrTransientFetch, status)
	}
	return resp, nil
}

// document GETs a page and parses it into a goquery document.
func document(ctx context.Context, client *http.Client, url, userAgent string) (*goquery.Document, error) {
	resp, err := get(ctx, client, url, userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
