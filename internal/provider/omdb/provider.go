// Package omdb looks up IMDb IDs by series title on the Open Movie Database.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-Shane/omdb"
	"github.com/mik25/your-series/internal/provider"
)

const (
	providerName   = "omdb"
	defaultTimeout = 10 * time.Second
)

// Config configures a Provider. HTTPClient overrides the default client.
type Config struct {
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Provider resolves series titles to IMDb IDs through OMDb.
type Provider struct {
	client *omdb.Client
}

// New creates an OMDb provider. An API key is required.
func New(cfg Config) (*Provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("omdb api key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Provider{
		client: omdb.NewClient(apiKey, httpClient),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// CrossRefByTitle returns the IMDb ID of the series OMDb matches to title.
func (p *Provider) CrossRefByTitle(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "series lookup requires a title",
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := p.client.SearchByTitle(omdb.QueryData{
		Title:      title,
		SearchType: "series",
	})
	if err != nil {
		return "", p.mapError(err)
	}

	var imdbID string
	switch series := result.(type) {
	case omdb.SeriesResult:
		imdbID = series.ImdbID
	case *omdb.SeriesResult:
		if series != nil {
			imdbID = series.ImdbID
		}
	}
	if imdbID == "" {
		return "", provider.NotFound(providerName, fmt.Sprintf("series not found: %s", title))
	}
	return imdbID, nil
}

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "missing omdb api key"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeAuthFailed,
			Message:  "OMDb authentication failed: " + msg,
		}
	case strings.Contains(lower, "not found"):
		return provider.NotFound(providerName, msg)
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeRateLimited,
			Message:    msg,
			Retry:      true,
			RetryAfter: 5,
		}
	default:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeUnknown,
			Message:  msg,
		}
	}
}
