package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mik25/your-series/internal/library"
	"github.com/mik25/your-series/internal/playlist"
)

func rec(name string, season, episode int, url string) playlist.EpisodeRecord {
	return playlist.EpisodeRecord{SeriesName: name, Season: season, Episode: episode, StreamURL: url}
}

func TestAggregatorTwoEpisodes(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(rec("Show", 1, 1, "u1"), "tt1", "Show")
	a.Add(rec("Show", 1, 2, "u2"), "tt1", "Show")

	want := []library.Series{{
		ID:   "tt1",
		Name: "Show",
		Seasons: []library.Season{{
			Season:   1,
			Episodes: []library.Episode{{Episode: 1, StreamURL: "u1"}, {Episode: 2, StreamURL: "u2"}},
		}},
	}}
	if diff := cmp.Diff(want, a.Series()); diff != "" {
		t.Errorf("Series() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatorOrdering(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		records []playlist.EpisodeRecord
		want    []library.Series
	}{
		"series in first-seen order": {
			records: []playlist.EpisodeRecord{
				rec("B", 1, 1, "b1"),
				rec("A", 1, 1, "a1"),
				rec("B", 1, 2, "b2"),
			},
			want: []library.Series{
				{ID: "ttB", Name: "B", Seasons: []library.Season{{Season: 1, Episodes: []library.Episode{{Episode: 1, StreamURL: "b1"}, {Episode: 2, StreamURL: "b2"}}}}},
				{ID: "ttA", Name: "A", Seasons: []library.Season{{Season: 1, Episodes: []library.Episode{{Episode: 1, StreamURL: "a1"}}}}},
			},
		},
		"seasons in first-seen order, not sorted": {
			records: []playlist.EpisodeRecord{
				rec("A", 2, 1, "s2e1"),
				rec("A", 1, 5, "s1e5"),
				rec("A", 2, 2, "s2e2"),
			},
			want: []library.Series{
				{ID: "ttA", Name: "A", Seasons: []library.Season{
					{Season: 2, Episodes: []library.Episode{{Episode: 1, StreamURL: "s2e1"}, {Episode: 2, StreamURL: "s2e2"}}},
					{Season: 1, Episodes: []library.Episode{{Episode: 5, StreamURL: "s1e5"}}},
				}},
			},
		},
		"duplicate episodes are kept": {
			records: []playlist.EpisodeRecord{
				rec("A", 1, 1, "mirror1"),
				rec("A", 1, 1, "mirror2"),
			},
			want: []library.Series{
				{ID: "ttA", Name: "A", Seasons: []library.Season{
					{Season: 1, Episodes: []library.Episode{{Episode: 1, StreamURL: "mirror1"}, {Episode: 1, StreamURL: "mirror2"}}},
				}},
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := New()
			for _, r := range tc.records {
				a.Add(r, "tt"+r.SeriesName, r.SeriesName)
			}
			if diff := cmp.Diff(tc.want, a.Series()); diff != "" {
				t.Errorf("Series() mismatch (-want +got):\n%s", diff)
			}
			if a.Len() != len(tc.want) {
				t.Errorf("Len() = %d, want %d", a.Len(), len(tc.want))
			}
		})
	}
}

func TestAggregatorEmpty(t *testing.T) {
	t.Parallel()

	got := New().Series()
	if got == nil || len(got) != 0 {
		t.Errorf("Series() = %#v, want empty non-nil slice", got)
	}
}

func TestSeriesReturnsCopy(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add(rec("A", 1, 1, "u1"), "tt1", "A")
	first := a.Series()
	first[0].Seasons[0].Episodes[0].StreamURL = "changed"

	if got := a.Series()[0].Seasons[0].Episodes[0].StreamURL; got != "u1" {
		t.Errorf("mutating result leaked into aggregator: %q", got)
	}
}
