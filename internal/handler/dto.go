package handler

import (
	"time"

	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/urlcanon"
)

// NewsResponse is the wire shape of one record. Nullable columns map to
// omitted JSON fields. For SFC records the content URL is rewritten from
// the internal API form to the public gateway page.
type NewsResponse struct {
	ID           int64   `json:"id"`
	Source       string  `json:"source"`
	IssueDate    *string `json:"issue_date,omitempty"`
	Title        string  `json:"title"`
	Content      *string `json:"content,omitempty"`
	ContentURL   *string `json:"content_url,omitempty"`
	LLMSummary   *string `json:"llm_summary,omitempty"`
	CreationDate string  `json:"creation_date"`
	CreationUser string  `json:"creation_user"`
	Status       string  `json:"status"`
}

// BatchResponse wraps an ingestion run: persisted records plus the
// sources that failed without aborting the batch.
type BatchResponse struct {
	Records  []NewsResponse `json:"records"`
	Warnings []string       `json:"warnings,omitempty"`
}

// GroupedResponse maps source names to their records for range reads.
type GroupedResponse map[string][]NewsResponse

// StatisticsResponse is one row of the per-source, per-status counts.
type StatisticsResponse struct {
	Source string `json:"source"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// UpdateStatusRequest carries the new workflow status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateNewsRequest carries the editable record fields; omitted fields
// stay untouched.
type UpdateNewsRequest struct {
	Title      *string `json:"title"`
	LLMSummary *string `json:"llm_summary"`
}

func toNewsResponse(record domain.NewsRecord, canon *urlcanon.Canonicalizer) NewsResponse {
	resp := NewsResponse{
		ID:           record.ID,
		Source:       string(record.Source),
		Title:        record.Title,
		Content:      record.Content,
		ContentURL:   record.ContentURL,
		LLMSummary:   record.LLMSummary,
		CreationDate: record.CreationDate.Format(time.RFC3339),
		CreationUser: record.CreationUser,
		Status:       string(record.Status),
	}
	if record.IssueDate != nil {
		iso := record.IssueDate.Format("2006-01-02")
		resp.IssueDate = &iso
	}
	if record.Source == domain.SourceSFC && record.ContentURL != nil && canon != nil {
		if public, err := canon.PublicURL(*record.ContentURL); err == nil {
			resp.ContentURL = &public
		}
	}
	return resp
}

func toNewsResponses(records []domain.NewsRecord, canon *urlcanon.Canonicalizer) []NewsResponse {
	out := make([]NewsResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toNewsResponse(r, canon))
	}
	return out
}
