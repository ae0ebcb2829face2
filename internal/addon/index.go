package addon

import (
	"fmt"
	"strings"

	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/mik25/your-series/internal/library"
	"github.com/samber/lo"
)

// Index answers addon lookups over a loaded library. When the same ID appears
// in several files the first one wins.
type Index struct {
	order []string
	byID  *csmap.CsMap[string, library.Series]
}

// NewIndex builds an Index over series.
func NewIndex(series []library.Series) *Index {
	idx := &Index{byID: csmap.Create[string, library.Series]()}
	for _, s := range series {
		if s.ID == "" {
			continue
		}
		if _, exists := idx.byID.Load(s.ID); exists {
			continue
		}
		idx.byID.Store(s.ID, s)
		idx.order = append(idx.order, s.ID)
	}
	return idx
}

// Len returns the number of distinct series.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Series returns the series stored under id.
func (idx *Index) Series(id string) (library.Series, bool) {
	return idx.byID.Load(id)
}

// Search lists catalog previews whose name contains query, ignoring case.
// An empty query lists everything.
func (idx *Index) Search(query string) []MetaPreview {
	query = strings.ToLower(query)
	return lo.FilterMap(idx.order, func(id string, _ int) (MetaPreview, bool) {
		s, _ := idx.byID.Load(id)
		if query != "" && !strings.Contains(strings.ToLower(s.Name), query) {
			return MetaPreview{}, false
		}
		return preview(s), true
	})
}

// Meta returns the detail view for id.
func (idx *Index) Meta(id string) (Meta, bool) {
	s, ok := idx.byID.Load(id)
	if !ok {
		return Meta{}, false
	}
	videos := make([]Video, 0, s.EpisodeCount())
	for _, season := range s.Seasons {
		for _, ep := range season.Episodes {
			videos = append(videos, Video{
				ID:      VideoID(s.ID, season.Season, ep.Episode),
				Title:   fmt.Sprintf("S%dE%d", season.Season, ep.Episode),
				Season:  season.Season,
				Episode: ep.Episode,
			})
		}
	}
	return Meta{MetaPreview: preview(s), Videos: videos}, true
}

// VideoID formats the episode identifier used by meta and stream requests.
func VideoID(seriesID string, season, episode int) string {
	return fmt.Sprintf("%s:%d:%d", seriesID, season, episode)
}

func preview(s library.Series) MetaPreview {
	return MetaPreview{ID: s.ID, Type: contentType, Name: s.Name}
}
