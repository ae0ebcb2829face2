// Package aggregate folds parsed episode records into the nested series
// document.
package aggregate

import (
	"github.com/mik25/your-series/internal/library"
	"github.com/mik25/your-series/internal/playlist"
)

type seriesBuilder struct {
	id      string
	name    string
	seasons []*library.Season
	index   map[int]*library.Season
}

// Aggregator collects episodes per series. Series keep the order in which
// their first record arrived; seasons keep first-seen order; episodes keep
// insertion order. It is not safe for concurrent use.
type Aggregator struct {
	order  []*seriesBuilder
	byName map[string]*seriesBuilder
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{byName: make(map[string]*seriesBuilder)}
}

// Add appends record under the series name. The cross-reference ID is taken
// from the first record seen for that name.
func (a *Aggregator) Add(record playlist.EpisodeRecord, crossRefID, name string) {
	sb, ok := a.byName[name]
	if !ok {
		sb = &seriesBuilder{id: crossRefID, name: name, index: make(map[int]*library.Season)}
		a.byName[name] = sb
		a.order = append(a.order, sb)
	}

	season, ok := sb.index[record.Season]
	if !ok {
		season = &library.Season{Season: record.Season, Episodes: []library.Episode{}}
		sb.index[record.Season] = season
		sb.seasons = append(sb.seasons, season)
	}
	season.Episodes = append(season.Episodes, library.Episode{
		Episode:   record.Episode,
		StreamURL: record.StreamURL,
	})
}

// Len reports how many series have been collected.
func (a *Aggregator) Len() int {
	return len(a.order)
}

// Series returns the collected document. The result is never nil.
func (a *Aggregator) Series() []library.Series {
	out := make([]library.Series, 0, len(a.order))
	for _, sb := range a.order {
		seasons := make([]library.Season, 0, len(sb.seasons))
		for _, s := range sb.seasons {
			seasons = append(seasons, library.Season{
				Season:   s.Season,
				Episodes: append([]library.Episode(nil), s.Episodes...),
			})
		}
		out = append(out, library.Series{ID: sb.id, Name: sb.name, Seasons: seasons})
	}
	return out
}
