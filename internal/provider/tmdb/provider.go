// Package tmdb resolves series names to TMDB and IMDb identifiers.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mik25/your-series/internal/provider"
	"github.com/ryanbradynd05/go-tmdb"
)

const (
	providerName = "tmdb"

	defaultLanguage   = "en-US"
	defaultRateLimit  = 38
	defaultRateWindow = 10 * time.Second
)

// TMDBClient is the subset of *tmdb.TMDb used here, split out for testing.
type TMDBClient interface {
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	GetTvInfo(id int, options map[string]string) (*tmdb.TV, error)
}

// Config configures a Provider. Client overrides the real API client.
type Config struct {
	APIKey     string
	Language   string
	RateLimit  int
	RateWindow time.Duration
	Timeout    time.Duration
	Client     TMDBClient
}

// Provider performs catalog searches and external ID lookups against TMDB.
type Provider struct {
	client      TMDBClient
	language    string
	timeout     time.Duration
	rateLimiter *rateLimiter
}

// New builds a Provider. An API key is required unless a client is injected.
func New(cfg Config) (*Provider, error) {
	client := cfg.Client
	if client == nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("tmdb api key is required")
		}
		client = tmdb.Init(tmdb.Config{
			APIKey:   cfg.APIKey,
			Proxies:  nil,
			UseProxy: false,
		})
	}

	language := cfg.Language
	if language == "" {
		language = defaultLanguage
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = defaultRateWindow
	}

	return &Provider{
		client:      client,
		language:    language,
		timeout:     cfg.Timeout,
		rateLimiter: newRateLimiter(limit, window),
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// mapError maps TMDB errors to provider errors
func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeAuthFailed,
			Message:  "TMDB authentication failed: " + err.Error(),
		}
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit"):
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeRateLimited,
			Message:    "TMDB rate limit exceeded",
			Retry:      true,
			RetryAfter: 10,
		}
	case strings.Contains(errStr, "404") || strings.Contains(errStr, "not found"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeNotFound,
			Message:  "TMDB resource not found: " + err.Error(),
		}
	case strings.Contains(errStr, "503") || strings.Contains(errStr, "unavailable"):
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeUnavailable,
			Message:    "TMDB service unavailable",
			Retry:      true,
			RetryAfter: 30,
		}
	}

	return &provider.ProviderError{
		Provider: providerName,
		Code:     provider.CodeUnknown,
		Message:  "TMDB error: " + err.Error(),
	}
}

// call runs a blocking client call, giving up when ctx or the per-request
// timeout expires. The client call itself is not interruptible.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.value, r.err
	}
}
