// Package resolver turns series names into catalog and cross-reference IDs,
// consulting the identifier cache before any network lookup.
package resolver

import (
	"context"
	"errors"

	"github.com/mik25/your-series/internal/idcache"
	"github.com/mik25/your-series/internal/log"
	"github.com/mik25/your-series/internal/metrics"
	"github.com/mik25/your-series/internal/provider"
	"github.com/patrickmn/go-cache"
)

// Resolution is the outcome of resolving one series name.
type Resolution struct {
	Name       string
	CatalogID  int
	CrossRefID string
	// FailedStage is metrics.StageCatalog or metrics.StageCrossRef when
	// resolution stopped early.
	FailedStage string
	Err         error
}

// Resolver performs at most one network attempt per series and stage per run.
// Successes land in the identifier cache; failures are remembered in memo so
// a second call for the same name stays offline.
type Resolver struct {
	store    *idcache.Store
	catalog  provider.CatalogSearcher
	crossRef provider.CrossRefFetcher
	fallback provider.TitleCrossRefFetcher
	memo     *cache.Cache
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTitleFallback consults fb when the catalog has no cross-reference ID.
func WithTitleFallback(fb provider.TitleCrossRefFetcher) Option {
	return func(r *Resolver) { r.fallback = fb }
}

// New builds a Resolver over store. catalog and crossRef are usually the same
// TMDB provider.
func New(store *idcache.Store, catalog provider.CatalogSearcher, crossRef provider.CrossRefFetcher, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		catalog:  catalog,
		crossRef: crossRef,
		memo:     cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func memoKey(stage, name string) string {
	return stage + "\x00" + name
}

// failure returns the error remembered for an earlier failed lookup, or nil.
func (r *Resolver) failure(stage, name string) error {
	if v, ok := r.memo.Get(memoKey(stage, name)); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

// remember records a failed lookup. Callers skip this when the run itself was
// cancelled so an interrupted lookup is not mistaken for a miss.
func (r *Resolver) remember(stage, name string, err error) {
	r.memo.Set(memoKey(stage, name), err, cache.NoExpiration)
}

// CatalogID returns the catalog ID for name. ok is false when the lookup
// failed now or earlier in this run.
func (r *Resolver) CatalogID(ctx context.Context, name string) (int, bool) {
	id, err := r.catalogID(ctx, name)
	return id, err == nil
}

func (r *Resolver) catalogID(ctx context.Context, name string) (int, error) {
	if id, ok := r.store.CatalogID(name); ok {
		metrics.Lookups.WithLabelValues(metrics.StageCatalog, metrics.SourceCache).Inc()
		return id, nil
	}
	if err := r.failure(metrics.StageCatalog, name); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	id, err := r.catalog.SearchSeries(ctx, name)
	if err != nil {
		metrics.Lookups.WithLabelValues(metrics.StageCatalog, metrics.SourceMiss).Inc()
		log.LogSearch(name, 0, false, err)
		log.WithField("series", name).Warnf("catalog lookup failed: %v", err)
		if ctx.Err() == nil {
			r.remember(metrics.StageCatalog, name, err)
		}
		return 0, err
	}

	metrics.Lookups.WithLabelValues(metrics.StageCatalog, metrics.SourceNetwork).Inc()
	log.LogSearch(name, id, true, nil)
	r.store.SetCatalogID(name, id)
	return id, nil
}

// CrossRefID returns the cross-reference ID for name, whose catalog ID is
// catalogID. ok is false when no lookup produced one.
func (r *Resolver) CrossRefID(ctx context.Context, catalogID int, name string) (string, bool) {
	xref, err := r.crossRefID(ctx, catalogID, name)
	return xref, err == nil
}

func (r *Resolver) crossRefID(ctx context.Context, catalogID int, name string) (string, error) {
	if xref, ok := r.store.CrossRefID(name); ok {
		metrics.Lookups.WithLabelValues(metrics.StageCrossRef, metrics.SourceCache).Inc()
		return xref, nil
	}
	if err := r.failure(metrics.StageCrossRef, name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	xref, err := r.crossRef.CrossRefID(ctx, catalogID)
	if err != nil && r.fallback != nil && ctx.Err() == nil {
		log.WithField("series", name).Debugf("catalog has no cross reference (%v), trying title lookup", err)
		if fbRef, fbErr := r.fallback.CrossRefByTitle(ctx, name); fbErr == nil {
			xref, err = fbRef, nil
		} else {
			err = errors.Join(err, fbErr)
		}
	}
	if err != nil {
		metrics.Lookups.WithLabelValues(metrics.StageCrossRef, metrics.SourceMiss).Inc()
		log.LogCrossRef(name, "", false, err)
		log.WithField("series", name).Warnf("cross reference lookup failed: %v", err)
		if ctx.Err() == nil {
			r.remember(metrics.StageCrossRef, name, err)
		}
		return "", err
	}

	metrics.Lookups.WithLabelValues(metrics.StageCrossRef, metrics.SourceNetwork).Inc()
	log.LogCrossRef(name, xref, true, nil)
	if err := r.store.SetCrossRefID(name, catalogID, xref); err != nil {
		log.WithField("series", name).Warnf("not caching cross reference: %v", err)
	}
	return xref, nil
}

// Resolve runs both stages for name.
func (r *Resolver) Resolve(ctx context.Context, name string) (Resolution, bool) {
	res := Resolution{Name: name}

	id, err := r.catalogID(ctx, name)
	if err != nil {
		res.FailedStage, res.Err = metrics.StageCatalog, err
		return res, false
	}
	res.CatalogID = id

	xref, err := r.crossRefID(ctx, id, name)
	if err != nil {
		res.FailedStage, res.Err = metrics.StageCrossRef, err
		return res, false
	}
	res.CrossRefID = xref
	return res, true
}
