package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery is returned when a listing endpoint cannot be fetched or yields no identifiers
	ErrDiscovery = errors.New("identifier discovery failed")

	// ErrFetch is returned when a page request fails at the transport or HTTP level
	ErrFetch = errors.New("page fetch failed")

	// ErrExtraction is returned when expected markup or JSON structure is absent or malformed
	ErrExtraction = errors.New("payload extraction failed")

	// ErrInvalidVariant is returned for an unknown schema variant name
	ErrInvalidVariant = errors.New("invalid schema variant")

	// ErrNoData is returned when every configured source failed
	ErrNoData = errors.New("no source produced any data")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFoodNotFound is returned when a food name is not in the table
	ErrFoodNotFound = errors.New("food not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// FetchError describes a failed page request
type FetchError struct {
	URL        string
	StatusCode int // zero for transport errors
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: %s: status %d", ErrFetch, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s: %v", ErrFetch, e.URL, e.Err)
}

// Unwrap exposes both ErrFetch and the underlying transport error to errors.Is
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}
