package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/ports"
)

const defaultPageSize = 20

// NewsService exposes the read and review operations over stored records.
type NewsService struct {
	store  ports.RecordStore
	logger *slog.Logger
}

// NewNewsService wires the record store.
func NewNewsService(store ports.RecordStore, logger *slog.Logger) *NewsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsService{store: store, logger: logger}
}

// GetBySource returns one page of records for a single source, oldest
// issue date first. Pages are 1-based; out-of-range values fall back to
// the first page and the default size.
func (s *NewsService) GetBySource(ctx context.Context, rawSource string, page, size int) ([]domain.NewsRecord, error) {
	src, err := domain.ParseSource(rawSource)
	if err != nil {
		return nil, err
	}
	offset, limit := pageWindow(page, size)
	return s.store.GetBySource(ctx, src, offset, limit)
}

// GetAll returns one page across every source, newest issue date first.
func (s *NewsService) GetAll(ctx context.Context, page, size int) ([]domain.NewsRecord, error) {
	offset, limit := pageWindow(page, size)
	return s.store.GetAll(ctx, offset, limit)
}

// GetByIDs returns the records matching the given IDs; absent IDs are
// silently omitted.
func (s *NewsService) GetByIDs(ctx context.Context, ids []int64) ([]domain.NewsRecord, error) {
	if len(ids) == 0 {
		return nil, &domain.ValidationError{Field: "ids", Reason: "must not be empty"}
	}
	return s.store.GetByIDs(ctx, ids)
}

// GetByDateRangeGrouped returns the records issued inside [start, end]
// grouped per source. The sources allow-list narrows the result; empty
// means all sources. An optional status filters every group.
func (s *NewsService) GetByDateRangeGrouped(ctx context.Context, start, end time.Time, rawSources []string, rawStatus string) (map[domain.Source][]domain.NewsRecord, error) {
	if end.Before(start) {
		return nil, &domain.ValidationError{Field: "dateRange", Reason: "end date precedes start date"}
	}

	sources, err := resolveSources(rawSources)
	if err != nil {
		return nil, err
	}

	var status *domain.Status
	if strings.TrimSpace(rawStatus) != "" {
		parsed, err := domain.ParseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}

	grouped := make(map[domain.Source][]domain.NewsRecord, len(sources))
	for _, src := range sources {
		records, err := s.store.GetByDateRange(ctx, start, end, &src, status)
		if err != nil {
			return nil, err
		}
		grouped[src] = records
	}
	return grouped, nil
}

// Last7Days returns the records issued during the last seven Hong Kong
// calendar days, including today.
func (s *NewsService) Last7Days(ctx context.Context) ([]domain.NewsRecord, error) {
	now := dateutil.NowHK()
	return s.store.GetByDateRange(ctx, now.AddDate(0, 0, -7), now, nil, nil)
}

// UpdateStatus validates the raw status token and applies it. The store
// write is idempotent: re-applying the current status succeeds.
func (s *NewsService) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*domain.NewsRecord, error) {
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	record, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("record status updated", "id", id, "status", status)
	return record, nil
}

// UpdateTitleAndSummary updates the provided fields. At least one must be
// given and a provided title must not be blank.
func (s *NewsService) UpdateTitleAndSummary(ctx context.Context, id int64, title, summary *string) (*domain.NewsRecord, error) {
	if title == nil && summary == nil {
		return nil, &domain.ValidationError{Field: "title", Reason: "at least one of title or llm_summary must be provided"}
	}
	if title != nil && strings.TrimSpace(*title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "must not be blank"}
	}
	return s.store.UpdateTitleAndSummary(ctx, id, title, summary)
}

// Statistics reports record counts per source and status.
func (s *NewsService) Statistics(ctx context.Context) ([]domain.SourceStatusCount, error) {
	return s.store.StatisticsBySourceAndStatus(ctx)
}

// pageWindow converts a 1-based page and size into an offset/limit pair.
func pageWindow(page, size int) (offset, limit int) {
	if size <= 0 {
		size = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return (page - 1) * size, size
}

// resolveSources parses an allow-list of raw source tokens, defaulting to
// the full canonical set.
func resolveSources(raw []string) ([]domain.Source, error) {
	if len(raw) == 0 {
		return domain.AllSources(), nil
	}
	seen := make(map[domain.Source]bool, len(raw))
	sources := make([]domain.Source, 0, len(raw))
	for _, token := range raw {
		src, err := domain.ParseSource(token)
		if err != nil {
			return nil, err
		}
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	return sources, nil
}
