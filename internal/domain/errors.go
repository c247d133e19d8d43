package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTransientFetch marks network, timeout and rate-limit faults that the
// adapters recover from locally. Wrap it so callers can errors.Is on it.
var ErrTransientFetch = errors.New("transient fetch failure")

// ErrNotFound is returned by the store for updates and reads of absent ids.
var ErrNotFound = errors.New("record not found")

// RecordParseError reports one raw listing item whose structure does not
// match the expected shape. The item is skipped; siblings continue.
type RecordParseError struct {
	Source Source
	Reason string
}

func (e *RecordParseError) Error() string {
	return fmt.Sprintf("%s: malformed record: %s", e.Source, e.Reason)
}

// URLFormatError reports a canonicalization input that does not match the
// expected base path or lacks a required parameter.
type URLFormatError struct {
	URL    string
	Reason string
}

func (e *URLFormatError) Error() string {
	return fmt.Sprintf("invalid url %s: %s", e.URL, e.Reason)
}

// ValidationError rejects a client request before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// SourceFailure attributes one error to the source that produced it.
type SourceFailure struct {
	Source Source
	Err    error
}

func (f SourceFailure) Message() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// AggregateSourceError is the batch-level failure raised only when every
// configured source failed during one ingestion run.
type AggregateSourceError struct {
	Failures []SourceFailure
}

func (e *AggregateSourceError) Error() string {
	messages := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		messages = append(messages, f.Message())
	}
	return fmt.Sprintf("all sources failed: %s", strings.Join(messages, "; "))
}
