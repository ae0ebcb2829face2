// Package metrics holds the Prometheus instrumentation for builds and the
// addon server. Everything registers with the default registry and is
// exposed by Handler at GET /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup stages and sources used as label values.
const (
	StageCatalog  = "catalog"
	StageCrossRef = "crossref"

	SourceCache   = "cache"
	SourceNetwork = "network"
	SourceMiss    = "miss"
)

// PlaylistsFetched counts playlist fetches by result (ok, unavailable).
var PlaylistsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "your_series_playlists_fetched_total",
	Help: "Playlist fetch attempts by result.",
}, []string{"result"})

// EpisodesParsed counts episode records extracted from playlists.
var EpisodesParsed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "your_series_episodes_parsed_total",
	Help: "Episode records parsed from playlists.",
})

// Lookups counts identifier lookups by stage and where the answer came from.
var Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "your_series_lookups_total",
	Help: "Identifier lookups by stage and source.",
}, []string{"stage", "source"})

// SeriesResolved is the number of series with both identifiers in the last build.
var SeriesResolved = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "your_series_series_resolved",
	Help: "Series fully resolved in the most recent build.",
})

// LibrarySeries is the number of series the addon is serving.
var LibrarySeries = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "your_series_library_series",
	Help: "Series loaded into the addon library.",
})

// AddonRequests counts addon requests by resource and status code.
var AddonRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "your_series_addon_requests_total",
	Help: "Addon requests by resource and status.",
}, []string{"resource", "status"})

// StreamChecks counts stream liveness checks by result (live, dead).
var StreamChecks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "your_series_stream_checks_total",
	Help: "Stream liveness checks by result.",
}, []string{"result"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
