// Package idcache persists series name to catalog/cross-reference identifier
// mappings between runs.
package idcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/spf13/afero"
)

var (
	// ErrCorruptCache is returned by Load when the cache file cannot be trusted.
	ErrCorruptCache = errors.New("identifier cache is corrupt")
	// ErrMissingCatalogID is returned when a cross-reference ID would be stored
	// without a catalog ID to anchor it.
	ErrMissingCatalogID = errors.New("cross-reference id requires a catalog id")
)

// Entry holds the identifiers known for one series. A zero CatalogID means
// the catalog lookup has not succeeded yet.
type Entry struct {
	CatalogID  int    `json:"tmdb_id"`
	CrossRefID string `json:"imdb_id,omitempty"`
}

// HasCatalogID reports whether the catalog stage is resolved.
func (e Entry) HasCatalogID() bool {
	return e.CatalogID > 0
}

// Complete reports whether both identifiers are present.
func (e Entry) Complete() bool {
	return e.HasCatalogID() && e.CrossRefID != ""
}

// Store is the in-memory identifier cache for a single run. Reads are
// lock-free; writes to an entry are serialized so a read-modify-write on one
// key never interleaves with another.
type Store struct {
	entries *csmap.CsMap[string, Entry]
	writeMu sync.Mutex
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: csmap.Create[string, Entry]()}
}

// Load reads the cache file at path. A missing file yields an empty store.
// Unparseable content, or an entry with a cross-reference ID but no catalog
// ID, is reported as ErrCorruptCache.
func Load(fs afero.Fs, path string) (*Store, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read identifier cache: %w", err)
	}

	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCache, path, err)
	}

	store := New()
	for name, entry := range raw {
		if entry.CrossRefID != "" && !entry.HasCatalogID() {
			return nil, fmt.Errorf("%w: %s: entry %q has imdb_id without tmdb_id", ErrCorruptCache, path, name)
		}
		if !entry.HasCatalogID() {
			continue
		}
		store.entries.Store(name, entry)
	}
	return store, nil
}

// Save overwrites the cache file with every entry, pretty-printed.
func (s *Store) Save(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(s.Entries(), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal identifier cache: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write identifier cache: %w", err)
	}
	return nil
}

// CatalogID returns the cached catalog ID for name, if any.
func (s *Store) CatalogID(name string) (int, bool) {
	entry, ok := s.entries.Load(name)
	if !ok || !entry.HasCatalogID() {
		return 0, false
	}
	return entry.CatalogID, true
}

// CrossRefID returns the cached cross-reference ID for name, if any.
func (s *Store) CrossRefID(name string) (string, bool) {
	entry, ok := s.entries.Load(name)
	if !ok || entry.CrossRefID == "" {
		return "", false
	}
	return entry.CrossRefID, true
}

// SetCatalogID records the catalog ID for name, creating the entry when
// absent. A changed catalog ID drops any cross-reference ID tied to the old one.
func (s *Store) SetCatalogID(name string, catalogID int) {
	if catalogID <= 0 {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry, _ := s.entries.Load(name)
	if entry.CatalogID != catalogID {
		entry.CrossRefID = ""
	}
	entry.CatalogID = catalogID
	s.entries.Store(name, entry)
}

// SetCrossRefID records the cross-reference ID for name. If the entry does not
// exist yet it is created with catalogID, so catalogID must be valid whenever
// the entry may be missing.
func (s *Store) SetCrossRefID(name string, catalogID int, crossRefID string) error {
	if crossRefID == "" {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry, _ := s.entries.Load(name)
	if !entry.HasCatalogID() {
		if catalogID <= 0 {
			return fmt.Errorf("%w: %q", ErrMissingCatalogID, name)
		}
		entry.CatalogID = catalogID
	}
	entry.CrossRefID = crossRefID
	s.entries.Store(name, entry)
	return nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return s.entries.Count()
}

// Entries returns a snapshot of every entry.
func (s *Store) Entries() map[string]Entry {
	result := make(map[string]Entry, s.entries.Count())
	s.entries.Range(func(name string, entry Entry) bool {
		result[name] = entry
		return false
	})
	return result
}

// Names returns the cached series names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, s.entries.Count())
	s.entries.Range(func(name string, _ Entry) bool {
		names = append(names, name)
		return false
	})
	sort.Strings(names)
	return names
}
