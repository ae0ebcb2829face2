package provider

import (
	"context"
	"errors"
)

// Error codes shared by all providers.
const (
	CodeAuthFailed     = "AUTH_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnknown        = "UNKNOWN"
)

// CatalogSearcher resolves a free-text series name to a catalog ID.
type CatalogSearcher interface {
	SearchSeries(ctx context.Context, name string) (int, error)
}

// CrossRefFetcher resolves a catalog ID to a cross-reference (IMDb) ID.
type CrossRefFetcher interface {
	CrossRefID(ctx context.Context, catalogID int) (string, error)
}

// TitleCrossRefFetcher resolves a series title straight to a cross-reference
// ID, bypassing the catalog.
type TitleCrossRefFetcher interface {
	CrossRefByTitle(ctx context.Context, title string) (string, error)
}

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
}

func (e *ProviderError) Error() string {
	return e.Message
}

// HasCode reports whether err is a ProviderError with the given code.
func HasCode(err error, code string) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code == code
	}
	return false
}

// NotFound builds a NOT_FOUND error for provider.
func NotFound(providerName, message string) error {
	return &ProviderError{
		Provider: providerName,
		Code:     CodeNotFound,
		Message:  message,
	}
}
