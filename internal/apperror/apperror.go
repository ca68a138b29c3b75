// Package apperror defines the failure taxonomy of the recommendation pipeline
// and how each failure is surfaced to HTTP callers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindExtractionFailed   Kind = "EXTRACTION_FAILED"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindEmbedding          Kind = "EMBEDDING_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindInternal           Kind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to API callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error appends the cause unless Message already quotes it.
func (e *Error) Error() string {
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether retrying the same request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindServiceUnavailable
}

// Validation reports malformed caller input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ExtractionFailed reports catalog markup that could not be turned into records.
func ExtractionFailed(reason string) *Error {
	return &Error{
		Kind:    KindExtractionFailed,
		Message: "Failed to parse assessments: " + reason,
	}
}

// Timeout reports that every catalog fetch attempt timed out.
func Timeout(err error) *Error {
	return &Error{
		Kind:    KindServiceUnavailable,
		Message: "Failed to fetch assessments: Connection timeout. Please try again later.",
		Err:     err,
	}
}

// Unavailable reports that every catalog fetch attempt failed on the network.
func Unavailable(err error) *Error {
	return &Error{
		Kind:    KindServiceUnavailable,
		Message: fmt.Sprintf("Failed to fetch assessments: Network error - %v", err),
		Err:     err,
	}
}

// QueryEmbedding reports a failure embedding the caller's query.
func QueryEmbedding(err error) *Error {
	return &Error{
		Kind:    KindEmbedding,
		Message: fmt.Sprintf("Error processing query: %v", err),
		Err:     err,
	}
}

// CatalogEmbedding reports a failure embedding the catalog records.
func CatalogEmbedding(err error) *Error {
	return &Error{
		Kind:    KindEmbedding,
		Message: fmt.Sprintf("Error generating assessment embeddings: %v", err),
		Err:     err,
	}
}

// NoDurationMatch reports that the duration ceiling emptied the candidate set.
func NoDurationMatch(maxDuration int) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("No assessments found matching the duration criteria of %d minutes", maxDuration),
	}
}

// NoRelevantMatch reports that no candidate reached the relevance floor.
func NoRelevantMatch() *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: "No relevant assessments found for your query. Please try with different keywords.",
	}
}

// Internal wraps an unclassified failure.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: fmt.Sprintf("An unexpected error occurred: %v", err),
		Err:     err,
	}
}

// As returns the classified error in err's chain, wrapping unclassified
// errors as Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// HTTPStatus maps a kind to the response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
