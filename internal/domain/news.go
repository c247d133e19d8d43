package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source enumerates the regulators we ingest announcements from.
type Source string

const (
	SourceSFC  Source = "SFC"
	SourceHKEX Source = "HKEX"
	SourceSEC  Source = "SEC"
	SourceHKMA Source = "HKMA"
)

// AllSources returns the closed source set in its canonical order.
func AllSources() []Source {
	return []Source{SourceSFC, SourceHKEX, SourceSEC, SourceHKMA}
}

// ParseSource validates a raw source token, case-insensitively.
func ParseSource(raw string) (Source, error) {
	candidate := Source(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range AllSources() {
		if candidate == s {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", raw)}
}

// Status is the review-workflow state of a persisted record.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusDiscard  Status = "DISCARD"
)

// ParseStatus normalizes case-insensitive input to the uppercase enum value.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusVerified:
		return StatusVerified, nil
	case StatusDiscard:
		return StatusDiscard, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status %q, expected PENDING, VERIFIED or DISCARD", raw)}
}

// NewsRecord is the canonical, source-agnostic announcement entity.
// IssueDate, Content, ContentURL and LLMSummary stay nil when the
// corresponding fetch or parse step failed; the record survives anyway.
type NewsRecord struct {
	ID           int64
	Source       Source
	IssueDate    *time.Time
	Title        string
	Content      *string
	ContentURL   *string
	LLMSummary   *string
	CreationDate time.Time
	CreationUser string
	Status       Status
}

// SourceStatusCount is one row of the source/status statistics report.
type SourceStatusCount struct {
	Source Source
	Status Status
	Count  int64
}
