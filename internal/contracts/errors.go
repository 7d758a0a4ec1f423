package contracts

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by every stage. Test with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingData     = errors.New("missing data")
	ErrDataSource      = errors.New("data source failure")
	ErrConsistency     = errors.New("consistency violation")

	// ErrRateLimited is a data source failure: errors.Is(ErrRateLimited, ErrDataSource) holds
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrDataSource)
)

// DataSourceError carries transport detail for a failed quote batch
type DataSourceError struct {
	BatchKey   string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *DataSourceError) Error() string {
	key := e.BatchKey
	if len(key) > 64 {
		key = key[:61] + "..."
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("batch %q: status %d: %v", key, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("batch %q: %v", key, e.Err)
}

// Unwrap exposes both the error kind and the underlying cause
func (e *DataSourceError) Unwrap() []error {
	kind := ErrDataSource
	if e.StatusCode == http.StatusTooManyRequests {
		kind = ErrRateLimited
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}
