package source

import (
	"context"
	"fmt"
	"time"

	"ComplianceRadar/internal/domain"
)

// RawItem is one listing entry as a source exposes it, before content
// fetch. IssueDate is nil when the source's date token did not normalize;
// the raw token is retained for diagnostics.
type RawItem struct {
	Title        string
	URL          string
	RawDateToken string
	Category     string
	IssueDate    *time.Time
}

// Adapter is the capability contract every upstream variant implements:
// a windowed listing of raw items plus a per-item content fetch.
//
// Listing returns an empty slice on recovered transient faults; it only
// propagates uncategorized errors. Content is best-effort: callers treat
// an error or empty string as "no content" and keep the record.
type Adapter interface {
	Name() string
	Source() domain.Source
	Listing(ctx context.Context, from, to time.Time) ([]RawItem, error)
	Content(ctx context.Context, url string) (string, error)
}

// Registry keeps a mapping from adapter names to their implementations.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	if _, exists := r.adapters[adapter.Name()]; !exists {
		r.order = append(r.order, adapter.Name())
	}
	r.adapters[adapter.Name()] = adapter
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("source adapter %s is not registered", name)
}

// All returns the registered adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

// InRange reports whether the item's issue date falls inside [from, to],
// compared on calendar days. Items without a normalized date are kept;
// dropping them would hide records behind a date-parsing defect.
func (i RawItem) InRange(from, to time.Time) bool {
	if i.IssueDate == nil {
		return true
	}
	day := i.IssueDate.Format("2006-01-02")
	return day >= from.Format("2006-01-02") && day <= to.Format("2006-01-02")
}
