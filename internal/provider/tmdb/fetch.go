package tmdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/mik25/your-series/internal/provider"
	"github.com/ryanbradynd05/go-tmdb"
)

// SearchSeries returns the ID of the first TMDB TV search result for name.
func (p *Provider) SearchSeries(ctx context.Context, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "series search requires a name",
		}
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return 0, p.mapError(err)
	}

	options := map[string]string{
		"language": p.language,
	}
	results, err := call(ctx, p.timeout, func() (*tmdb.TvSearchResults, error) {
		return p.client.SearchTv(name, options)
	})
	if err != nil {
		return 0, p.mapError(err)
	}

	if results == nil || len(results.Results) == 0 {
		return 0, provider.NotFound(providerName, fmt.Sprintf("no results found for show: %s", name))
	}

	id := results.Results[0].ID
	if id <= 0 {
		return 0, provider.NotFound(providerName, fmt.Sprintf("invalid result id for show: %s", name))
	}
	return id, nil
}

// CrossRefID returns the IMDb ID TMDB lists for the show with catalogID.
func (p *Provider) CrossRefID(ctx context.Context, catalogID int) (string, error) {
	if catalogID <= 0 {
		return "", &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  fmt.Sprintf("invalid catalog id: %d", catalogID),
		}
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return "", p.mapError(err)
	}

	options := map[string]string{
		"language":           p.language,
		"append_to_response": "external_ids",
	}
	show, err := call(ctx, p.timeout, func() (*tmdb.TV, error) {
		return p.client.GetTvInfo(catalogID, options)
	})
	if err != nil {
		return "", p.mapError(err)
	}

	if show == nil || show.ExternalIDs == nil || show.ExternalIDs.ImdbID == "" {
		return "", provider.NotFound(providerName, fmt.Sprintf("no imdb id for tmdb show %d", catalogID))
	}
	return show.ExternalIDs.ImdbID, nil
}
