package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ComplianceRadar/internal/domain"
)

func TestCreateRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	store := NewPostgresStore(nil, nil)
	err := store.Create(context.Background(), &domain.NewsRecord{Source: domain.SourceSFC, Title: "   "})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDateRangeQueryOrderingAndFilters(t *testing.T) {
	t.Parallel()

	store := NewPostgresStore(nil, nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	query, args, err := store.dateRangeBuilder(start, end, nil, nil).ToSql()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.Contains(query, "ORDER BY issue_date DESC NULLS LAST, source ASC, id ASC") {
		t.Fatalf("missing ordering clause: %s", query)
	}
	if strings.Contains(query, "source =") {
		t.Fatalf("unexpected source filter: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}

	src := domain.SourceSEC
	status := domain.StatusVerified
	query, args, err = store.dateRangeBuilder(start, end, &src, &status).ToSql()
	if err != nil {
		t.Fatalf("build filtered query: %v", err)
	}
	if !strings.Contains(query, "source = $3") || !strings.Contains(query, "status = $4") {
		t.Fatalf("filters missing or placeholders wrong: %s", query)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
}

func TestUpdateTitleAndSummaryRequiresAField(t *testing.T) {
	t.Parallel()

	store := NewPostgresStore(nil, nil)
	_, err := store.UpdateTitleAndSummary(context.Background(), 1, nil, nil)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
