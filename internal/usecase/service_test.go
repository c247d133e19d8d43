package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ComplianceRadar/internal/domain"
)

func seedRecord(t *testing.T, store *fakeStore, src domain.Source, title, isoDay string) domain.NewsRecord {
	t.Helper()
	issued, err := time.Parse("2006-01-02", isoDay)
	if err != nil {
		t.Fatalf("parse day %s: %v", isoDay, err)
	}
	record := domain.NewsRecord{Source: src, Title: title, IssueDate: &issued, Status: domain.StatusPending}
	if err := store.Create(context.Background(), &record); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestGetBySourceRejectsUnknownSource(t *testing.T) {
	t.Parallel()

	svc := NewNewsService(newFakeStore(), nil)
	_, err := svc.GetBySource(context.Background(), "FINRA", 1, 10)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGetBySourceAcceptsLowercase(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedRecord(t, store, domain.SourceSFC, "Notice", "2025-06-27")

	svc := NewNewsService(store, nil)
	records, err := svc.GetBySource(context.Background(), "sfc", 1, 10)
	if err != nil {
		t.Fatalf("GetBySource returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	record := seedRecord(t, store, domain.SourceSEC, "Charge", "2025-06-27")
	svc := NewNewsService(store, nil)

	if _, err := svc.UpdateStatus(context.Background(), record.ID, "archived"); err == nil {
		t.Fatal("expected error for invalid status")
	}

	updated, err := svc.UpdateStatus(context.Background(), record.ID, "verified")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != domain.StatusVerified {
		t.Fatalf("status = %s, want VERIFIED", updated.Status)
	}

	// Re-applying the same status is idempotent.
	again, err := svc.UpdateStatus(context.Background(), record.ID, "VERIFIED")
	if err != nil {
		t.Fatalf("idempotent UpdateStatus returned error: %v", err)
	}
	if again.Status != domain.StatusVerified {
		t.Fatalf("status = %s after reapply", again.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), 9999, "PENDING"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestUpdateTitleAndSummaryValidation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	record := seedRecord(t, store, domain.SourceHKMA, "Old title", "2025-06-27")
	svc := NewNewsService(store, nil)

	if _, err := svc.UpdateTitleAndSummary(context.Background(), record.ID, nil, nil); err == nil {
		t.Fatal("expected error when both fields are nil")
	}

	blank := "   "
	if _, err := svc.UpdateTitleAndSummary(context.Background(), record.ID, &blank, nil); err == nil {
		t.Fatal("expected error for blank title")
	}

	summary := "circular summary"
	updated, err := svc.UpdateTitleAndSummary(context.Background(), record.ID, nil, &summary)
	if err != nil {
		t.Fatalf("UpdateTitleAndSummary returned error: %v", err)
	}
	if updated.Title != "Old title" {
		t.Fatalf("title must be untouched, got %q", updated.Title)
	}
	if updated.LLMSummary == nil || *updated.LLMSummary != summary {
		t.Fatalf("summary not applied: %v", updated.LLMSummary)
	}
}

func TestGetByDateRangeGrouped(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedRecord(t, store, domain.SourceSFC, "SFC one", "2025-06-25")
	seedRecord(t, store, domain.SourceSEC, "SEC one", "2025-06-26")
	seedRecord(t, store, domain.SourceHKMA, "HKMA old", "2025-01-01")

	svc := NewNewsService(store, nil)
	start, _ := time.Parse("2006-01-02", "2025-06-20")
	end, _ := time.Parse("2006-01-02", "2025-06-30")

	grouped, err := svc.GetByDateRangeGrouped(context.Background(), start, end, []string{"sfc", "SEC", "sfc"}, "")
	if err != nil {
		t.Fatalf("GetByDateRangeGrouped returned error: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(grouped))
	}
	if len(grouped[domain.SourceSFC]) != 1 || len(grouped[domain.SourceSEC]) != 1 {
		t.Fatalf("unexpected group sizes: %v", grouped)
	}
	if _, ok := grouped[domain.SourceHKMA]; ok {
		t.Fatal("HKMA must be excluded by the allow-list")
	}

	if _, err := svc.GetByDateRangeGrouped(context.Background(), end, start, nil, ""); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if _, err := svc.GetByDateRangeGrouped(context.Background(), start, end, nil, "bogus"); err == nil {
		t.Fatal("expected error for invalid status filter")
	}
}

func TestGetByIDsRejectsEmpty(t *testing.T) {
	t.Parallel()

	svc := NewNewsService(newFakeStore(), nil)
	if _, err := svc.GetByIDs(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty id list")
	}
}

func TestPageWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		page, size    int
		offset, limit int
	}{
		{1, 10, 0, 10},
		{3, 25, 50, 25},
		{0, 0, 0, defaultPageSize},
		{-2, -5, 0, defaultPageSize},
	}
	for _, c := range cases {
		offset, limit := pageWindow(c.page, c.size)
		if offset != c.offset || limit != c.limit {
			t.Fatalf("pageWindow(%d, %d) = (%d, %d), want (%d, %d)",
				c.page, c.size, offset, limit, c.offset, c.limit)
		}
	}
}
