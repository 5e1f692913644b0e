package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for resolution failures.
var (
	ErrEmptyDescription = errors.New("empty meal description")
	ErrNoCandidates     = errors.New("no candidates retrieved")
	ErrLowTextScore     = errors.New("no candidate cleared the text score floor")
	ErrSparseMacros     = errors.New("candidate macros too sparse")
	ErrUnitMismatch     = errors.New("serving unit incompatible with estimate")
)

// ResolutionError wraps a sentinel with the query that produced it. It is an
// internal signal consumed by the decision policy, never surfaced to callers:
// every per-item failure degrades to a manual fallback record.
type ResolutionError struct {
	Query   string
	Wrapped error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve: %s (query=%q)", e.Wrapped, e.Query)
}

func (e *ResolutionError) Unwrap() error { return e.Wrapped }

// NewResolutionError creates a ResolutionError.
func NewResolutionError(query string, wrapped error) *ResolutionError {
	return &ResolutionError{Query: query, Wrapped: wrapped}
}
