// Package playlist turns M3U playlists into episode records.
package playlist

import (
	"regexp"
	"strconv"
	"strings"
)

// EpisodeRecord is a single episode entry extracted from a playlist.
type EpisodeRecord struct {
	SeriesName   string
	Season       int
	Episode      int
	EpisodeTitle string
	StreamURL    string
}

// defaultSeason is used when an entry carries only an episode marker.
const defaultSeason = 1

// entryPattern matches an #EXTINF line holding "<title> [(year)] [(tag)] [S<n>]E<n> [episode title]"
// followed by its stream URL line. Quoted attribute values may contain commas.
// The title ends at the first episode marker, so "Show E1 Special S01E02" is
// episode 1 of "Show".
var entryPattern = regexp.MustCompile(
	`(?i)#EXTINF:-?\d+(?:[^,\n"]|"[^"\n]*")*,(.*?)(?:\s\(\d{4}\))?(?:\s\(.*?\))?\s(?:S(\d+)\s?)?E(\d+)(?:[ \t]+([^\r\n]*?))?[ \t]*\r?\n(https?://\S+)`,
)

// Parse extracts episode records from playlist text in order of appearance.
// Entries that do not match are skipped.
func Parse(text string) []EpisodeRecord {
	matches := entryPattern.FindAllStringSubmatch(text, -1)
	records := make([]EpisodeRecord, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}

		season := defaultSeason
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			season = n
		}
		episode, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}

		records = append(records, EpisodeRecord{
			SeriesName:   name,
			Season:       season,
			Episode:      episode,
			EpisodeTitle: strings.TrimSpace(m[4]),
			StreamURL:    strings.TrimSpace(m[5]),
		})
	}
	return records
}

// ParseAll parses each playlist independently and concatenates the results
// in playlist order.
func ParseAll(texts []string) []EpisodeRecord {
	var records []EpisodeRecord
	for _, text := range texts {
		records = append(records, Parse(text)...)
	}
	return records
}
