package handler

import (
	"testing"

	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/urlcanon"
)

func TestToNewsResponseRewritesSFCURL(t *testing.T) {
	t.Parallel()

	record := sampleRecord(1, domain.SourceSFC)
	apiURL := "https://apps.sfc.hk/edistributionWeb/api/news/content?refNo=25PR99&lang=TC"
	record.ContentURL = &apiURL

	resp := toNewsResponse(record, urlcanon.New(nil))
	want := "https://apps.sfc.hk/edistributionWeb/gateway/TC/news-and-announcements/news/doc?refNo=25PR99"
	if resp.ContentURL == nil || *resp.ContentURL != want {
		t.Fatalf("content url = %v, want %s", resp.ContentURL, want)
	}
}

func TestToNewsResponseLeavesOtherSourcesAlone(t *testing.T) {
	t.Parallel()

	record := sampleRecord(2, domain.SourceSEC)
	url := "https://www.sec.gov/newsroom/press-releases/2025-100"
	record.ContentURL = &url

	resp := toNewsResponse(record, urlcanon.New(nil))
	if resp.ContentURL == nil || *resp.ContentURL != url {
		t.Fatalf("content url must pass through unchanged, got %v", resp.ContentURL)
	}
}
