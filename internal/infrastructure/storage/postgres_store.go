// Package storage persists canonical news records into Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/ports"
)

const recordColumns = "id, source, issue_date, title, content, content_url, llm_summary, creation_date, creation_user, status"

// PostgresStore implements ports.RecordStore on top of database/sql with
// the pq driver.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// Create inserts a record and fills its generated ID and creation date.
// An empty title is rejected before touching the database; a missing
// status defaults to pending.
func (s *PostgresStore) Create(ctx context.Context, record *domain.NewsRecord) error {
	if strings.TrimSpace(record.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if record.Status == "" {
		record.Status = domain.StatusPending
	}
	if record.CreationUser == "" {
		record.CreationUser = "system"
	}

	query, args, err := s.builder.
		Insert("compliance_news").
		Columns("source", "issue_date", "title", "content", "content_url", "llm_summary", "creation_user", "status").
		Values(string(record.Source), record.IssueDate, record.Title, record.Content,
			record.ContentURL, record.LLMSummary, record.CreationUser, string(record.Status)).
		Suffix("RETURNING id, creation_date").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&record.ID, &record.CreationDate); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetBySource returns a page of records for one source ordered by issue
// date ascending, oldest first.
func (s *PostgresStore) GetBySource(ctx context.Context, src domain.Source, offset, limit int) ([]domain.NewsRecord, error) {
	builder := s.builder.
		Select(recordColumns).
		From("compliance_news").
		Where(sq.Eq{"source": string(src)}).
		OrderBy("issue_date ASC NULLS LAST", "id ASC").
		Offset(uint64(offset))
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return s.queryRecords(ctx, builder)
}

// GetAll returns a page across every source, newest issue date first.
func (s *PostgresStore) GetAll(ctx context.Context, offset, limit int) ([]domain.NewsRecord, error) {
	builder := s.builder.
		Select(recordColumns).
		From("compliance_news").
		OrderBy("issue_date DESC NULLS LAST", "source ASC", "id ASC").
		Offset(uint64(offset))
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return s.queryRecords(ctx, builder)
}

// GetByDateRange returns records whose issue date falls inside
// [start, end], newest first, optionally narrowed to one source or one
// status.
func (s *PostgresStore) GetByDateRange(ctx context.Context, start, end time.Time, src *domain.Source, status *domain.Status) ([]domain.NewsRecord, error) {
	return s.queryRecords(ctx, s.dateRangeBuilder(start, end, src, status))
}

func (s *PostgresStore) dateRangeBuilder(start, end time.Time, src *domain.Source, status *domain.Status) sq.SelectBuilder {
	builder := s.builder.
		Select(recordColumns).
		From("compliance_news").
		Where(sq.GtOrEq{"issue_date": start}).
		Where(sq.LtOrEq{"issue_date": end}).
		OrderBy("issue_date DESC NULLS LAST", "source ASC", "id ASC")
	if src != nil {
		builder = builder.Where(sq.Eq{"source": string(*src)})
	}
	if status != nil {
		builder = builder.Where(sq.Eq{"status": string(*status)})
	}
	return builder
}

// GetByIDs returns the records matching the given IDs. Missing IDs are
// logged and omitted rather than failing the batch.
func (s *PostgresStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.NewsRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	builder := s.builder.
		Select(recordColumns).
		From("compliance_news").
		Where(sq.Expr("id = ANY(?)", pq.Array(ids))).
		OrderBy("id ASC")

	records, err := s.queryRecords(ctx, builder)
	if err != nil {
		return nil, err
	}

	if len(records) < len(ids) {
		found := make(map[int64]bool, len(records))
		for _, r := range records {
			found[r.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				s.logger.Warn("record not found in batch read", "id", id)
			}
		}
	}
	return records, nil
}

// UpdateStatus sets a record's status and returns the updated record, or
// domain.ErrNotFound when the ID does not exist.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.NewsRecord, error) {
	query, args, err := s.builder.
		Update("compliance_news").
		Set("status", string(status)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + recordColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	record, err := s.scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return record, nil
}

// UpdateTitleAndSummary updates the provided fields only; a nil pointer
// leaves its column untouched. At least one field must be given.
func (s *PostgresStore) UpdateTitleAndSummary(ctx context.Context, id int64, title, summary *string) (*domain.NewsRecord, error) {
	builder := s.builder.Update("compliance_news").Where(sq.Eq{"id": id})

	assigned := false
	if title != nil {
		builder = builder.Set("title", *title)
		assigned = true
	}
	if summary != nil {
		builder = builder.Set("llm_summary", *summary)
		assigned = true
	}
	if !assigned {
		return nil, &domain.ValidationError{Field: "title", Reason: "at least one of title or llm_summary must be provided"}
	}

	query, args, err := builder.Suffix("RETURNING " + recordColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	record, err := s.scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update title and summary: %w", err)
	}
	return record, nil
}

// StatisticsBySourceAndStatus counts records per source and status pair.
func (s *PostgresStore) StatisticsBySourceAndStatus(ctx context.Context) ([]domain.SourceStatusCount, error) {
	query, args, err := s.builder.
		Select("source", "status", "COUNT(*)").
		From("compliance_news").
		GroupBy("source", "status").
		OrderBy("source ASC", "status ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statistics: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	var counts []domain.SourceStatusCount
	for rows.Next() {
		var (
			src    string
			status string
			count  int64
		)
		if err := rows.Scan(&src, &status, &count); err != nil {
			return nil, fmt.Errorf("scan statistics row: %w", err)
		}
		counts = append(counts, domain.SourceStatusCount{
			Source: domain.Source(src),
			Status: domain.Status(status),
			Count:  count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statistics iteration: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) queryRecords(ctx context.Context, builder sq.SelectBuilder) ([]domain.NewsRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.NewsRecord
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records iteration: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanRecord(row rowScanner) (*domain.NewsRecord, error) {
	var (
		record     domain.NewsRecord
		src        string
		status     string
		issueDate  sql.NullTime
		content    sql.NullString
		contentURL sql.NullString
		summary    sql.NullString
	)
	if err := row.Scan(&record.ID, &src, &issueDate, &record.Title, &content,
		&contentURL, &summary, &record.CreationDate, &record.CreationUser, &status); err != nil {
		return nil, err
	}

	record.Source = domain.Source(src)
	record.Status = domain.Status(status)
	if issueDate.Valid {
		t := issueDate.Time
		record.IssueDate = &t
	}
	if content.Valid {
		v := content.String
		record.Content = &v
	}
	if contentURL.Valid {
		v := contentURL.String
		record.ContentURL = &v
	}
	if summary.Valid {
		v := summary.String
		record.LLMSummary = &v
	}
	return &record, nil
}
