package idcache

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	store, err := Load(afero.NewMemMapFs(), "id_cache.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		want    map[string]Entry
		corrupt bool
	}{
		"complete and partial entries": {
			content: `{"Show Name": {"tmdb_id": 42, "imdb_id": "tt999"}, "Other": {"tmdb_id": 7}}`,
			want: map[string]Entry{
				"Show Name": {CatalogID: 42, CrossRefID: "tt999"},
				"Other":     {CatalogID: 7},
			},
		},
		"null imdb id": {
			content: `{"Show": {"tmdb_id": 3, "imdb_id": null}}`,
			want:    map[string]Entry{"Show": {CatalogID: 3}},
		},
		"empty entry ignored": {
			content: `{"Ghost": {}}`,
			want:    map[string]Entry{},
		},
		"empty object": {
			content: `{}`,
			want:    map[string]Entry{},
		},
		"invalid json": {
			content: `{"Show": {"tmdb_id": `,
			corrupt: true,
		},
		"wrong shape": {
			content: `["Show"]`,
			corrupt: true,
		},
		"cross ref without catalog": {
			content: `{"Show": {"imdb_id": "tt1"}}`,
			corrupt: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "id_cache.json", []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			store, err := Load(fs, "id_cache.json")
			if tc.corrupt {
				if !errors.Is(err, ErrCorruptCache) {
					t.Fatalf("Load() error = %v, want ErrCorruptCache", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(tc.want, store.Entries()); diff != "" {
				t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := New()
	store.SetCatalogID("Show Name", 42)
	if err := store.SetCrossRefID("Show Name", 42, "tt999"); err != nil {
		t.Fatal(err)
	}
	store.SetCatalogID("Partial", 5)

	if err := store.Save(fs, "cache/id_cache.json"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(fs, "cache/id_cache.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(store.Entries(), loaded.Entries()); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestSaveFormat(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := New()
	store.SetCatalogID("Show", 1)

	if err := store.Save(fs, "id_cache.json"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := afero.ReadFile(fs, "id_cache.json")
	if err != nil {
		t.Fatal(err)
	}

	want := "{\n    \"Show\": {\n        \"tmdb_id\": 1\n    }\n}"
	if string(data) != want {
		t.Errorf("saved file = %q, want %q", data, want)
	}
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "id_cache.json", []byte(`{"Stale": {"tmdb_id": 9}}`), 0644); err != nil {
		t.Fatal(err)
	}

	store := New()
	store.SetCatalogID("Fresh", 1)
	if err := store.Save(fs, "id_cache.json"); err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(fs, "id_cache.json")
	if strings.Contains(string(data), "Stale") {
		t.Errorf("Save() should overwrite the whole file, got %s", data)
	}
}

func TestLookups(t *testing.T) {
	t.Parallel()

	store := New()
	if _, ok := store.CatalogID("Show"); ok {
		t.Error("CatalogID() on empty store should miss")
	}

	store.SetCatalogID("Show", 42)
	if id, ok := store.CatalogID("Show"); !ok || id != 42 {
		t.Errorf("CatalogID() = %d, %v, want 42, true", id, ok)
	}
	if _, ok := store.CrossRefID("Show"); ok {
		t.Error("CrossRefID() should miss before it is set")
	}

	if err := store.SetCrossRefID("Show", 42, "tt1"); err != nil {
		t.Fatal(err)
	}
	entry := store.Entries()["Show"]
	if !entry.Complete() {
		t.Errorf("entry %+v should be complete", entry)
	}

	// Keys are case sensitive.
	if _, ok := store.CatalogID("show"); ok {
		t.Error("CatalogID() should not match a different case")
	}
}

func TestSetCatalogIDChangeDropsCrossRef(t *testing.T) {
	t.Parallel()

	store := New()
	store.SetCatalogID("Show", 1)
	_ = store.SetCrossRefID("Show", 1, "tt1")
	store.SetCatalogID("Show", 1)
	if xref, _ := store.CrossRefID("Show"); xref != "tt1" {
		t.Errorf("same catalog id should keep cross ref, got %q", xref)
	}

	store.SetCatalogID("Show", 2)
	if _, ok := store.CrossRefID("Show"); ok {
		t.Error("new catalog id should drop stale cross ref")
	}

	store.SetCatalogID("Zero", 0)
	if _, ok := store.Entries()["Zero"]; ok {
		t.Error("zero catalog id should not create an entry")
	}
}

func TestSetCrossRefIDCreatesEntry(t *testing.T) {
	t.Parallel()

	store := New()
	if err := store.SetCrossRefID("New", 10, "tt10"); err != nil {
		t.Fatalf("SetCrossRefID() error = %v", err)
	}
	entry, ok := store.Entries()["New"]
	if !ok || entry != (Entry{CatalogID: 10, CrossRefID: "tt10"}) {
		t.Errorf("Entries()[New] = %+v, %v", entry, ok)
	}

	err := store.SetCrossRefID("Orphan", 0, "tt5")
	if !errors.Is(err, ErrMissingCatalogID) {
		t.Errorf("SetCrossRefID() error = %v, want ErrMissingCatalogID", err)
	}
	if _, ok := store.Entries()["Orphan"]; ok {
		t.Error("orphan cross ref must not create an entry")
	}
}

func TestConcurrentWritesKeepInvariant(t *testing.T) {
	t.Parallel()

	store := New()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Show %d", i%10)
			store.SetCatalogID(name, i%10+1)
			_ = store.SetCrossRefID(name, i%10+1, fmt.Sprintf("tt%d", i%10))
		}(i)
	}
	wg.Wait()

	for name, entry := range store.Entries() {
		if entry.CrossRefID != "" && !entry.HasCatalogID() {
			t.Errorf("entry %q has cross ref without catalog id", name)
		}
	}
	if diff := cmp.Diff(10, store.Len()); diff != "" {
		t.Errorf("Len() mismatch (-want +got):\n%s", diff)
	}
}

func TestNamesSorted(t *testing.T) {
	t.Parallel()

	store := New()
	for i, name := range []string{"Zeta", "Alpha", "Mid"} {
		store.SetCatalogID(name, i+1)
	}
	if diff := cmp.Diff([]string{"Alpha", "Mid", "Zeta"}, store.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}
