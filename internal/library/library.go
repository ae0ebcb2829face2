// Package library defines the organized series document produced by a build
// and consumed by the addon server.
package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// ErrInvalidParts is returned by Split when the part count is not positive.
var ErrInvalidParts = errors.New("parts must be a positive integer")

// Series is one fully resolved show keyed by its IMDb ID.
type Series struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Seasons []Season `json:"seasons"`
}

// Season groups the episodes of one season in playlist order.
type Season struct {
	Season   int       `json:"season"`
	Episodes []Episode `json:"episodes"`
}

// Episode is a single stream location.
type Episode struct {
	Episode   int    `json:"episode"`
	StreamURL string `json:"stream_url"`
}

// EpisodeCount returns the number of episodes across all seasons.
func (s Series) EpisodeCount() int {
	n := 0
	for _, season := range s.Seasons {
		n += len(season.Episodes)
	}
	return n
}

// Find returns the episode stored under season and episode.
func (s Series) Find(season, episode int) (Episode, bool) {
	for _, sn := range s.Seasons {
		if sn.Season != season {
			continue
		}
		for _, ep := range sn.Episodes {
			if ep.Episode == episode {
				return ep, true
			}
		}
	}
	return Episode{}, false
}

func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write stores series at path as a JSON array indented with four spaces.
// A nil or empty slice is written as [].
func Write(fs afero.Fs, path string, series []Series) error {
	if series == nil {
		series = []Series{}
	}
	data, err := marshal(series, "    ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write library %s: %w", path, err)
	}
	return nil
}

// Read decodes the series array stored at path.
func Read(fs afero.Fs, path string) ([]Series, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var series []Series
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decode library %s: %w", path, err)
	}
	return series, nil
}

// LoadGlob reads every file in dir matching pattern, in name order, and
// concatenates their series.
func LoadGlob(fs afero.Fs, dir, pattern string) ([]Series, error) {
	matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	slices.Sort(matches)

	all := make([]Series, 0)
	for _, path := range matches {
		series, err := Read(fs, path)
		if err != nil {
			return nil, err
		}
		all = append(all, series...)
	}
	return all, nil
}

// PartPath returns the file name Split uses for the zero-based part index.
func PartPath(path string, index int) string {
	return fmt.Sprintf("%s_part%d.json", path, index+1)
}

// Split divides the JSON array at path into parts files written next to it.
// Items are spread as evenly as possible with the first len%parts files
// taking one extra. It returns the paths written.
func Split(fs afero.Fs, path string, parts int) ([]string, error) {
	if parts <= 0 {
		return nil, ErrInvalidParts
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	written := make([]string, 0, parts)
	for i, chunk := range distribute(items, parts) {
		if chunk == nil {
			chunk = []json.RawMessage{}
		}
		out, err := marshal(chunk, "  ")
		if err != nil {
			return written, fmt.Errorf("encode part %d: %w", i+1, err)
		}
		target := PartPath(path, i)
		if err := afero.WriteFile(fs, target, out, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}

// distribute cuts items into exactly parts slices whose sizes differ by at
// most one, larger slices first.
func distribute[T any](items []T, parts int) [][]T {
	size, remainder := len(items)/parts, len(items)%parts
	out := make([][]T, 0, parts)
	start := 0
	for i := range parts {
		n := size
		if i < remainder {
			n++
		}
		out = append(out, items[start:start+n])
		start += n
	}
	return out
}

// Names returns the distinct series names in order.
func Names(series []Series) []string {
	return lo.Uniq(lo.Map(series, func(s Series, _ int) string { return s.Name }))
}
