package source

import (
	"codetransform/internal/domain"
	"errors"
	"fmt"
)

var (
	// ErrAggregation matches every *FetchError.
	ErrAggregation = errors.New("get source contents")

	ErrTooLarge    = errors.New("source exceeds size limit")
	ErrUnsafePath  = errors.New("archive entry escapes extraction dir")
	ErrUnsupported = errors.New("unsupported source type")
)

// FetchError is the single failure type the aggregator surfaces. Err keeps
// the original cause.
type FetchError struct {
	URL  string
	Kind domain.SourceKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s (URL = %s, type = %s): %v", ErrAggregation, e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrAggregation
}

// StatusError reports a non-2xx response from a source host.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %s", e.Status)
}
