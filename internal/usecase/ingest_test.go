package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/source"
)

// fakeAdapter serves a canned listing and content map.
type fakeAdapter struct {
	name    string
	src     domain.Source
	items   []source.RawItem
	listErr error
	content map[string]string
	cErr    error
}

func (f *fakeAdapter) Name() string          { return f.name }
func (f *fakeAdapter) Source() domain.Source { return f.src }

func (f *fakeAdapter) Listing(ctx context.Context, from, to time.Time) ([]source.RawItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeAdapter) Content(ctx context.Context, url string) (string, error) {
	if f.cErr != nil {
		return "", f.cErr
	}
	return f.content[url], nil
}

// fakeStore is an in-memory ports.RecordStore.
type fakeStore struct {
	mu         sync.Mutex
	records    []domain.NewsRecord
	nextID     int64
	failTitles map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{failTitles: map[string]bool{}}
}

func (s *fakeStore) Create(ctx context.Context, record *domain.NewsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTitles[record.Title] {
		return errors.New("simulated persist failure")
	}
	s.nextID++
	record.ID = s.nextID
	record.CreationDate = time.Now()
	s.records = append(s.records, *record)
	return nil
}

func (s *fakeStore) GetBySource(ctx context.Context, src domain.Source, offset, limit int) ([]domain.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NewsRecord
	for _, r := range s.records {
		if r.Source == src {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) GetAll(ctx context.Context, offset, limit int) ([]domain.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NewsRecord(nil), s.records...), nil
}

func (s *fakeStore) GetByDateRange(ctx context.Context, start, end time.Time, src *domain.Source, status *domain.Status) ([]domain.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NewsRecord
	for _, r := range s.records {
		if src != nil && r.Source != *src {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		if r.IssueDate != nil && (r.IssueDate.Before(start) || r.IssueDate.After(end)) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.NewsRecord
	for _, r := range s.records {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Status = status
			r := s.records[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) UpdateTitleAndSummary(ctx context.Context, id int64, title, summary *string) (*domain.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			if title != nil {
				s.records[i].Title = *title
			}
			if summary != nil {
				s.records[i].LLMSummary = summary
			}
			r := s.records[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) StatisticsBySourceAndStatus(ctx context.Context) ([]domain.SourceStatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]*domain.SourceStatusCount{}
	for _, r := range s.records {
		key := string(r.Source) + "/" + string(r.Status)
		if counts[key] == nil {
			counts[key] = &domain.SourceStatusCount{Source: r.Source, Status: r.Status}
		}
		counts[key].Count++
	}
	var out []domain.SourceStatusCount
	for _, c := range counts {
		out = append(out, *c)
	}
	return out, nil
}

// fakeSummarizer returns a fixed prefix of the content.
type fakeSummarizer struct {
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "summary of: " + content, nil
}

func rawItem(title, url string, issued time.Time) source.RawItem {
	return source.RawItem{Title: title, URL: url, IssueDate: &issued}
}

func TestRunIsolatesSingleSourceFailure(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	registry := source.NewRegistry()
	registry.Register(&fakeAdapter{
		name: "sfc", src: domain.SourceSFC,
		items:   []source.RawItem{rawItem("SFC notice", "http://sfc/1", day)},
		content: map[string]string{"http://sfc/1": "sfc body"},
	})
	registry.Register(&fakeAdapter{
		name: "sec", src: domain.SourceSEC,
		listErr: fmt.Errorf("feed unavailable"),
	})
	registry.Register(&fakeAdapter{
		name: "hkma", src: domain.SourceHKMA,
		items:   []source.RawItem{rawItem("HKMA release", "http://hkma/1", day)},
		content: map[string]string{"http://hkma/1": "hkma body"},
	})

	store := newFakeStore()
	ing := NewIngestor(IngestorDeps{Registry: registry, Store: store})

	result, err := ing.RunForDate(context.Background(), day, IngestOptions{})
	if err != nil {
		t.Fatalf("RunForDate returned error: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if result.Warnings[0].Source != domain.SourceSEC {
		t.Fatalf("warning attributed to %s, want SEC", result.Warnings[0].Source)
	}
	if len(store.records) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(store.records))
	}
}

func TestRunAllSourcesFailed(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	for _, src := range []domain.Source{domain.SourceSFC, domain.SourceSEC, domain.SourceHKMA} {
		registry.Register(&fakeAdapter{
			name: string(src), src: src,
			listErr: fmt.Errorf("%s down", src),
		})
	}

	store := newFakeStore()
	ing := NewIngestor(IngestorDeps{Registry: registry, Store: store})

	_, err := ing.RunForDate(context.Background(), time.Now(), IngestOptions{})
	var agg *domain.AggregateSourceError
	if !errors.As(err, &agg) {
		t.Fatalf("expected AggregateSourceError, got %v", err)
	}
	if len(agg.Failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(agg.Failures))
	}
	if len(store.records) != 0 {
		t.Fatalf("nothing should be persisted, got %d records", len(store.records))
	}
}

func TestRunSkipsUntitledAndSurvivesPersistFailure(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	registry := source.NewRegistry()
	registry.Register(&fakeAdapter{
		name: "sfc", src: domain.SourceSFC,
		items: []source.RawItem{
			rawItem("", "http://sfc/untitled", day),
			rawItem("Poison", "http://sfc/2", day),
			rawItem("Good one", "http://sfc/3", day),
		},
	})

	store := newFakeStore()
	store.failTitles["Poison"] = true
	ing := NewIngestor(IngestorDeps{Registry: registry, Store: store})

	result, err := ing.RunForDate(context.Background(), day, IngestOptions{})
	if err != nil {
		t.Fatalf("RunForDate returned error: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Title != "Good one" {
		t.Fatalf("expected only the good record, got %+v", result.Records)
	}
}

func TestRunEnrichment(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	registry := source.NewRegistry()
	registry.Register(&fakeAdapter{
		name: "sfc", src: domain.SourceSFC,
		items: []source.RawItem{
			rawItem("With body", "http://sfc/1", day),
			rawItem("Without body", "http://sfc/2", day),
		},
		content: map[string]string{"http://sfc/1": "announcement body"},
	})

	store := newFakeStore()
	sum := &fakeSummarizer{}
	ing := NewIngestor(IngestorDeps{Registry: registry, Store: store, Summarizer: sum})

	result, err := ing.RunForDate(context.Background(), day, IngestOptions{Enrich: true, User: "analyst"})
	if err != nil {
		t.Fatalf("RunForDate returned error: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if sum.calls != 1 {
		t.Fatalf("summarizer should run once for the record with a body, ran %d times", sum.calls)
	}

	byTitle := map[string]domain.NewsRecord{}
	for _, r := range result.Records {
		byTitle[r.Title] = r
	}
	withBody := byTitle["With body"]
	if withBody.LLMSummary == nil || *withBody.LLMSummary != "summary of: announcement body" {
		t.Fatalf("unexpected summary: %v", withBody.LLMSummary)
	}
	if withBody.CreationUser != "analyst" {
		t.Fatalf("creation user not propagated: %s", withBody.CreationUser)
	}
	if byTitle["Without body"].LLMSummary != nil {
		t.Fatal("record without content must not be summarized")
	}
}

func TestRunSummarizerFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	registry := source.NewRegistry()
	registry.Register(&fakeAdapter{
		name: "sfc", src: domain.SourceSFC,
		items:   []source.RawItem{rawItem("Notice", "http://sfc/1", day)},
		content: map[string]string{"http://sfc/1": "body"},
	})

	store := newFakeStore()
	sum := &fakeSummarizer{err: errors.New("model unavailable")}
	ing := NewIngestor(IngestorDeps{Registry: registry, Store: store, Summarizer: sum})

	result, err := ing.RunForDate(context.Background(), day, IngestOptions{Enrich: true})
	if err != nil {
		t.Fatalf("RunForDate returned error: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].LLMSummary != nil {
		t.Fatal("summary must stay nil when summarization fails")
	}
	if result.Records[0].Content == nil || *result.Records[0].Content != "body" {
		t.Fatal("content must survive summarization failure")
	}
}
