package addon

// CatalogID is the single catalog the addon publishes.
const CatalogID = "yourtvstreams"

const (
	manifestVersion = "1.0.0"
	contentType     = "series"
	idPrefix        = "tt"
)

// Manifest describes the addon to Stremio clients.
type Manifest struct {
	ID          string    `json:"id"`
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resources   []string  `json:"resources"`
	Types       []string  `json:"types"`
	IDPrefixes  []string  `json:"idPrefixes"`
	Catalogs    []Catalog `json:"catalogs"`
}

// Catalog is a manifest catalog entry.
type Catalog struct {
	Type           string   `json:"type"`
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ExtraSupported []string `json:"extraSupported"`
}

// MetaPreview is a catalog item.
type MetaPreview struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Meta is the detail view of a series.
type Meta struct {
	MetaPreview
	Videos []Video `json:"videos"`
}

// Video is one episode inside Meta.
type Video struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// Stream is a playable source for an episode.
type Stream struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func newManifest(cfg Config) Manifest {
	return Manifest{
		ID:          cfg.ID,
		Version:     manifestVersion,
		Name:        cfg.Name,
		Description: cfg.Description,
		Resources:   []string{"catalog", "stream", "meta"},
		Types:       []string{contentType},
		IDPrefixes:  []string{idPrefix},
		Catalogs: []Catalog{{
			Type:           contentType,
			ID:             CatalogID,
			Name:           cfg.Name,
			ExtraSupported: []string{"search"},
		}},
	}
}
