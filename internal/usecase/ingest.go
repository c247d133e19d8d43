// Package usecase orchestrates ingestion runs and read/update operations
// over the record store.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/ports"
	"ComplianceRadar/internal/source"
)

// IngestOptions tunes one ingestion run.
type IngestOptions struct {
	// Enrich enables per-record LLM summarization of fetched content.
	Enrich bool
	// User is recorded as the creating user; defaults to "system".
	User string
}

// BatchResult is the outcome of one run: everything persisted plus the
// failures of individual sources that did not abort the batch.
type BatchResult struct {
	Records  []domain.NewsRecord
	Warnings []domain.SourceFailure
}

// IngestorDeps wires the driven adapters into the ingestion workflow.
type IngestorDeps struct {
	Registry   *source.Registry
	Store      ports.RecordStore
	Summarizer ports.Summarizer
	Logger     *slog.Logger
}

// Ingestor fans an ingestion run out across every registered source,
// isolating per-source failures so one broken upstream never hides the
// others' records.
type Ingestor struct {
	registry   *source.Registry
	store      ports.RecordStore
	summarizer ports.Summarizer
	logger     *slog.Logger
}

// NewIngestor constructs the orchestration component.
func NewIngestor(deps IngestorDeps) *Ingestor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		registry:   deps.Registry,
		store:      deps.Store,
		summarizer: deps.Summarizer,
		logger:     logger,
	}
}

// RunToday ingests records issued on the current Hong Kong calendar day.
func (ing *Ingestor) RunToday(ctx context.Context, opts IngestOptions) (*BatchResult, error) {
	today := dateutil.NowHK()
	return ing.RunForDate(ctx, today, opts)
}

// RunForDate ingests records issued on one calendar day across all
// registered sources. Sources run concurrently; a batch error is returned
// only when every source failed, and nothing persisted by the succeeding
// sources is rolled back.
func (ing *Ingestor) RunForDate(ctx context.Context, day time.Time, opts IngestOptions) (*BatchResult, error) {
	return ing.Run(ctx, day, day, opts)
}

// Run ingests records issued inside [from, to] across all registered
// sources.
func (ing *Ingestor) Run(ctx context.Context, from, to time.Time, opts IngestOptions) (*BatchResult, error) {
	adapters := ing.registry.All()
	if len(adapters) == 0 {
		return &BatchResult{}, nil
	}
	if opts.User == "" {
		opts.User = "system"
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		records  []domain.NewsRecord
		failures []domain.SourceFailure
	)

	for _, adapter := range adapters {
		wg.Add(1)
		go func(adapter source.Adapter) {
			defer wg.Done()

			persisted, err := ing.runSource(ctx, adapter, from, to, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, domain.SourceFailure{Source: adapter.Source(), Err: err})
				return
			}
			records = append(records, persisted...)
		}(adapter)
	}
	wg.Wait()

	if len(failures) == len(adapters) {
		return nil, &domain.AggregateSourceError{Failures: failures}
	}

	ing.logger.Info("ingestion run finished",
		"from", dateutil.FormatISO(from), "to", dateutil.FormatISO(to),
		"records", len(records), "failedSources", len(failures))

	return &BatchResult{Records: records, Warnings: failures}, nil
}

// runSource lists one source's items and persists them sequentially.
// Content and summary are best-effort: a record is stored even when its
// body could not be fetched or summarized.
func (ing *Ingestor) runSource(ctx context.Context, adapter source.Adapter, from, to time.Time, opts IngestOptions) ([]domain.NewsRecord, error) {
	logger := ing.logger.With("adapter", adapter.Name())

	items, err := adapter.Listing(ctx, from, to)
	if err != nil {
		return nil, err
	}
	logger.Info("listing fetched", "items", len(items))

	var persisted []domain.NewsRecord
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			logger.Warn("skipping item without title", "url", item.URL)
			continue
		}

		record := domain.NewsRecord{
			Source:       adapter.Source(),
			IssueDate:    item.IssueDate,
			Title:        item.Title,
			CreationUser: opts.User,
			Status:       domain.StatusPending,
		}
		if item.URL != "" {
			url := item.URL
			record.ContentURL = &url
		}

		if item.URL != "" {
			content, cErr := adapter.Content(ctx, item.URL)
			if cErr != nil {
				logger.Warn("content fetch failed, storing without body", "url", item.URL, "error", cErr)
			} else if content != "" {
				record.Content = &content
			}
		}

		if opts.Enrich && ing.summarizer != nil && record.Content != nil {
			summary, sErr := ing.summarizer.Summarize(ctx, *record.Content)
			if sErr != nil {
				logger.Warn("summarization failed, storing without summary", "url", item.URL, "error", sErr)
			} else if summary != "" {
				record.LLMSummary = &summary
			}
		}

		if err := ing.store.Create(ctx, &record); err != nil {
			logger.Error("persist failed, continuing with remaining items", "title", item.Title, "error", err)
			continue
		}
		persisted = append(persisted, record)
	}

	return persisted, nil
}
