package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Lookups.WithLabelValues(StageCatalog, SourceCache))
	Lookups.WithLabelValues(StageCatalog, SourceCache).Inc()
	if got := testutil.ToFloat64(Lookups.WithLabelValues(StageCatalog, SourceCache)); got != before+1 {
		t.Errorf("lookups = %v, want %v", got, before+1)
	}

	SeriesResolved.Set(3)
	if got := testutil.ToFloat64(SeriesResolved); got != 3 {
		t.Errorf("series resolved = %v, want 3", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	PlaylistsFetched.WithLabelValues("ok").Inc()
	EpisodesParsed.Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"your_series_playlists_fetched_total", "your_series_episodes_parsed_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
}
