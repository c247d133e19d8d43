// Package handler exposes the ingestion and review operations over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/domain"
	"ComplianceRadar/internal/urlcanon"
	"ComplianceRadar/internal/usecase"
)

// Ingestor triggers ingestion runs.
type Ingestor interface {
	RunForDate(ctx context.Context, day time.Time, opts usecase.IngestOptions) (*usecase.BatchResult, error)
}

// NewsReader exposes the read and review operations the API serves.
type NewsReader interface {
	GetBySource(ctx context.Context, rawSource string, page, size int) ([]domain.NewsRecord, error)
	GetAll(ctx context.Context, page, size int) ([]domain.NewsRecord, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.NewsRecord, error)
	GetByDateRangeGrouped(ctx context.Context, start, end time.Time, sources []string, status string) (map[domain.Source][]domain.NewsRecord, error)
	Last7Days(ctx context.Context) ([]domain.NewsRecord, error)
	UpdateStatus(ctx context.Context, id int64, rawStatus string) (*domain.NewsRecord, error)
	UpdateTitleAndSummary(ctx context.Context, id int64, title, summary *string) (*domain.NewsRecord, error)
	Statistics(ctx context.Context) ([]domain.SourceStatusCount, error)
}

// NewsHandler binds the use cases to gin routes.
type NewsHandler struct {
	ingestor Ingestor
	service  NewsReader
	canon    *urlcanon.Canonicalizer
	logger   *slog.Logger
}

// NewNewsHandler wires the use cases.
func NewNewsHandler(ingestor Ingestor, service NewsReader, canon *urlcanon.Canonicalizer, logger *slog.Logger) *NewsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsHandler{ingestor: ingestor, service: service, canon: canon, logger: logger}
}

// IngestToday runs ingestion for the current Hong Kong calendar day.
func (h *NewsHandler) IngestToday(c *gin.Context) {
	h.runIngestion(c, dateutil.NowHK())
}

// IngestDate runs ingestion for one calendar day given as /date/:date.
func (h *NewsHandler) IngestDate(c *gin.Context) {
	day, err := dateutil.ParseISO(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
		return
	}
	h.runIngestion(c, day)
}

func (h *NewsHandler) runIngestion(c *gin.Context, day time.Time) {
	opts := usecase.IngestOptions{
		Enrich: parseBoolQuery(c, "llm_enabled", true),
		User:   c.DefaultQuery("user", "api"),
	}

	result, err := h.ingestor.RunForDate(c.Request.Context(), day, opts)
	if err != nil {
		var agg *domain.AggregateSourceError
		if errors.As(err, &agg) {
			messages := make([]string, 0, len(agg.Failures))
			for _, f := range agg.Failures {
				messages = append(messages, f.Message())
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "all sources failed", "sources": messages})
			return
		}
		h.logger.Error("ingestion run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}

	resp := BatchResponse{Records: toNewsResponses(result.Records, h.canon)}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, w.Message())
	}
	c.JSON(http.StatusOK, resp)
}

// List serves GET /api/news: the whole set paged, or one source's page
// when ?source= is given.
func (h *NewsHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 0)

	var (
		records []domain.NewsRecord
		err     error
	)
	if src := c.Query("source"); src != "" {
		records, err = h.service.GetBySource(c.Request.Context(), src, page, size)
	} else {
		records, err = h.service.GetAll(c.Request.Context(), page, size)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNewsResponses(records, h.canon))
}

// Last7Days serves the trailing week of records.
func (h *NewsHandler) Last7Days(c *gin.Context) {
	records, err := h.service.Last7Days(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNewsResponses(records, h.canon))
}

// Range serves GET /api/news/range: records inside [start, end] grouped
// per source, with optional sources allow-list and status filter.
func (h *NewsHandler) Range(c *gin.Context) {
	start, err := dateutil.ParseISO(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be formatted as YYYY-MM-DD"})
		return
	}
	end, err := dateutil.ParseISO(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be formatted as YYYY-MM-DD"})
		return
	}

	var sources []string
	if raw := c.Query("sources"); raw != "" {
		sources = strings.Split(raw, ",")
	}

	grouped, err := h.service.GetByDateRangeGrouped(c.Request.Context(), start, end, sources, c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := GroupedResponse{}
	for src, records := range grouped {
		resp[string(src)] = toNewsResponses(records, h.canon)
	}
	c.JSON(http.StatusOK, resp)
}

// Batch serves GET /api/news/batch?ids=1,2,3; missing IDs are omitted.
func (h *NewsHandler) Batch(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
		return
	}

	var ids []int64
	for _, token := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ids must be a comma-separated list of integers"})
			return
		}
		ids = append(ids, id)
	}

	records, err := h.service.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNewsResponses(records, h.canon))
}

// Statistics serves the per-source, per-status record counts.
func (h *NewsHandler) Statistics(c *gin.Context) {
	counts, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StatisticsResponse, 0, len(counts))
	for _, row := range counts {
		resp = append(resp, StatisticsResponse{
			Source: string(row.Source),
			Status: string(row.Status),
			Count:  row.Count,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus serves PUT /api/news/:id/status.
func (h *NewsHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status field is required"})
		return
	}

	record, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNewsResponse(*record, h.canon))
}

// Update serves PUT /api/news/:id for title and summary edits.
func (h *NewsHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	record, err := h.service.UpdateTitleAndSummary(c.Request.Context(), id, req.Title, req.LLMSummary)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNewsResponse(*record, h.canon))
}

func (h *NewsHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return 0, false
	}
	return id, true
}

func (h *NewsHandler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		h.logger.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolQuery(c *gin.Context, name string, fallback bool) bool {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
