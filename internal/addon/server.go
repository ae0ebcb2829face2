// Package addon serves a built library as a Stremio addon.
package addon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mik25/your-series/internal/log"
	"github.com/mik25/your-series/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Config describes the addon and its stream checks.
type Config struct {
	ID          string
	Name        string
	Description string
	// Checker, when set, must approve a stream before it is returned.
	Checker StreamChecker
}

// Server is the addon HTTP server.
type Server struct {
	index    *Index
	manifest Manifest
	checker  StreamChecker
}

// NewServer creates a Server over idx.
func NewServer(idx *Index, cfg Config) *Server {
	if cfg.Description == "" {
		cfg.Description = "Stream TV series"
	}
	metrics.LibrarySeries.Set(float64(idx.Len()))
	return &Server{
		index:    idx,
		manifest: newManifest(cfg),
		checker:  cfg.Checker,
	}
}

// Routes returns the router with every addon endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	r.Use(countRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "series": s.index.Len()})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get("/manifest.json", s.handleManifest)
	r.Get("/catalog/{type}/{id}", s.handleCatalog)
	r.Get("/catalog/{type}/{id}/{extra}", s.handleCatalog)
	r.Get("/meta/{type}/{id}", s.handleMeta)
	r.Get("/stream/{type}/{id}", s.handleStream)

	return r
}

// Serve listens on addr until ctx is cancelled, then drains connections.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Infof("addon listening with %d series", s.index.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down addon")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manifest)
}

// GET /catalog/{type}/{id}.json
// GET /catalog/{type}/{id}/search={query}.json
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	id := trimJSON(chi.URLParam(r, "id"))
	if typ != contentType || id != CatalogID {
		writeJSON(w, http.StatusOK, map[string]any{"metas": []MetaPreview{}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"metas": s.index.Search(searchQuery(r))})
}

// searchQuery returns the search extra of a catalog request. chi matches on
// the decoded path unless the request needed a raw path, so the segment is
// only unescaped in that case.
func searchQuery(r *http.Request) string {
	extra := trimJSON(chi.URLParam(r, "extra"))
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(extra); err == nil {
			extra = unescaped
		}
	}
	query, ok := strings.CutPrefix(extra, "search=")
	if !ok {
		return ""
	}
	return query
}

// GET /meta/{type}/{id}.json
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta, ok := s.index.Meta(trimJSON(chi.URLParam(r, "id")))
	if !ok || chi.URLParam(r, "type") != contentType {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meta": meta})
}

// GET /stream/{type}/{seriesID}:{season}:{episode}.json
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	streams := []Stream{}
	if stream, ok := s.lookupStream(r.Context(), trimJSON(chi.URLParam(r, "id"))); ok {
		streams = append(streams, stream)
	}
	writeJSON(w, http.StatusOK, map[string]any{"streams": streams})
}

func (s *Server) lookupStream(ctx context.Context, videoID string) (Stream, bool) {
	parts := strings.Split(videoID, ":")
	if len(parts) != 3 {
		return Stream{}, false
	}
	season, err := strconv.Atoi(parts[1])
	if err != nil {
		return Stream{}, false
	}
	episode, err := strconv.Atoi(parts[2])
	if err != nil {
		return Stream{}, false
	}

	series, ok := s.index.Series(parts[0])
	if !ok {
		return Stream{}, false
	}
	ep, ok := series.Find(season, episode)
	if !ok {
		return Stream{}, false
	}
	if s.checker != nil && !s.checker.Live(ctx, ep.StreamURL) {
		return Stream{}, false
	}
	return Stream{Title: fmt.Sprintf("S%sE%s", parts[1], parts[2]), URL: ep.StreamURL}, true
}

func trimJSON(segment string) string {
	return strings.TrimSuffix(segment, ".json")
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.AddonRequests.WithLabelValues(resourceOf(r.URL.Path), strconv.Itoa(status)).Inc()
	})
}

// resourceOf maps a request path to a low-cardinality label.
func resourceOf(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	switch first = trimJSON(first); first {
	case "manifest", "catalog", "meta", "stream", "health", "metrics":
		return first
	default:
		return "other"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
