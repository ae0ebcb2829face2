// Package pipeline runs a library build: fetch playlists, parse episodes,
// resolve identifiers, aggregate, and persist the output and identifier
// cache. Progress is published as a stream of Summary snapshots.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/mik25/your-series/internal/aggregate"
	"github.com/mik25/your-series/internal/idcache"
	"github.com/mik25/your-series/internal/library"
	"github.com/mik25/your-series/internal/log"
	"github.com/mik25/your-series/internal/metrics"
	"github.com/mik25/your-series/internal/playlist"
	"github.com/mik25/your-series/internal/provider"
	"github.com/mik25/your-series/internal/resolver"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Phase names reported in Summary.Phase.
const (
	PhaseLoad      = "load"
	PhaseFetch     = "fetch"
	PhaseParse     = "parse"
	PhaseResolve   = "resolve"
	PhaseAggregate = "aggregate"
	PhaseWrite     = "write"
)

const defaultWorkerCount = 10

// Fetcher retrieves raw playlist text.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (string, error)
}

// Config wires a Pipeline to its inputs, outputs and lookups.
type Config struct {
	Fs          afero.Fs
	ListPath    string
	OutputPath  string
	CachePath   string
	WorkerCount int

	Fetcher  Fetcher
	Catalog  provider.CatalogSearcher
	CrossRef provider.CrossRefFetcher
	// Fallback is optional.
	Fallback provider.TitleCrossRefFetcher
}

// Summary captures the state of a build at a point in time.
type Summary struct {
	Phase string

	Playlists       int
	PlaylistsFailed int
	Episodes        int

	TotalSeries     int
	ProcessedSeries int
	ResolvedSeries  int
	SkippedSeries   int
	ActiveWorkers   int
	WorkerLimit     int
	LastSeries      string
	Skipped         []string

	OutputSeries   int
	OutputEpisodes int
	CacheEntries   int

	Done     bool
	Canceled bool
	Err      string
}

// Event is a progress update emitted by Start.
type Event struct {
	Summary Summary
	Err     error
}

// Pipeline executes one build. It is not reusable.
type Pipeline struct {
	cfg Config

	resolutions *csmap.CsMap[string, resolver.Resolution]

	summaryMu sync.RWMutex
	summary   Summary

	errMu sync.Mutex
	err   error
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("pipeline: fetcher is required")
	}
	if cfg.Catalog == nil || cfg.CrossRef == nil {
		return nil, errors.New("pipeline: catalog and cross reference lookups are required")
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	return &Pipeline{
		cfg:         cfg,
		resolutions: csmap.Create[string, resolver.Resolution](),
		summary:     Summary{WorkerLimit: cfg.WorkerCount},
	}, nil
}

// Start runs the build in the background and returns a stream of progress
// events. The channel closes when the build finishes or ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) <-chan Event {
	events := make(chan Event, 128)
	go p.run(ctx, events)
	return events
}

// Run executes the build synchronously and returns the final summary.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	for range p.Start(ctx) {
	}
	return p.SummarySnapshot(), p.Err()
}

// SummarySnapshot returns the latest progress summary.
func (p *Pipeline) SummarySnapshot() Summary {
	p.summaryMu.RLock()
	defer p.summaryMu.RUnlock()
	s := p.summary
	s.Skipped = slices.Clone(p.summary.Skipped)
	return s
}

// Err returns the error that ended the build, if any.
func (p *Pipeline) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Resolution returns how name was resolved during this build.
func (p *Pipeline) Resolution(name string) (resolver.Resolution, bool) {
	return p.resolutions.Load(name)
}

func (p *Pipeline) run(ctx context.Context, events chan<- Event) {
	defer close(events)

	p.setPhase(PhaseLoad)
	p.emit(ctx, events, nil)

	store, err := idcache.Load(p.cfg.Fs, p.cfg.CachePath)
	if err != nil {
		p.fail(ctx, events, err)
		return
	}
	locations, err := playlist.ReadLocations(p.cfg.Fs, p.cfg.ListPath)
	if err != nil {
		p.fail(ctx, events, err)
		return
	}

	texts := p.fetchAll(ctx, events, locations)
	if ctx.Err() != nil {
		p.cancel(ctx, events, store)
		return
	}

	p.setPhase(PhaseParse)
	records := playlist.ParseAll(texts)
	metrics.EpisodesParsed.Add(float64(len(records)))
	names := lo.Uniq(lo.Map(records, func(r playlist.EpisodeRecord, _ int) string { return r.SeriesName }))
	p.update(func(s *Summary) {
		s.Episodes = len(records)
		s.TotalSeries = len(names)
	})
	p.emit(ctx, events, nil)

	res := resolver.New(store, p.cfg.Catalog, p.cfg.CrossRef, resolver.WithTitleFallback(p.cfg.Fallback))
	p.setPhase(PhaseResolve)
	p.resolveAll(ctx, events, res, names)
	if ctx.Err() != nil {
		p.cancel(ctx, events, store)
		return
	}

	p.setPhase(PhaseAggregate)
	p.emit(ctx, events, nil)
	agg := aggregate.New()
	for _, r := range records {
		resolution, ok := p.resolutions.Load(r.SeriesName)
		if !ok || resolution.Err != nil {
			continue
		}
		agg.Add(r, resolution.CrossRefID, r.SeriesName)
	}
	series := agg.Series()

	p.setPhase(PhaseWrite)
	p.emit(ctx, events, nil)
	writeErr := library.Write(p.cfg.Fs, p.cfg.OutputPath, series)
	log.LogWrite(p.cfg.OutputPath, writeErr == nil, writeErr)
	saveErr := p.saveCache(store)

	episodes := lo.SumBy(series, func(s library.Series) int { return s.EpisodeCount() })
	metrics.SeriesResolved.Set(float64(len(series)))
	p.update(func(s *Summary) {
		s.OutputSeries = len(series)
		s.OutputEpisodes = episodes
		s.CacheEntries = store.Len()
	})

	if err := errors.Join(writeErr, saveErr); err != nil {
		p.fail(ctx, events, err)
		return
	}

	log.WithFields(logrus.Fields{
		"series":   len(series),
		"episodes": episodes,
		"skipped":  p.SummarySnapshot().SkippedSeries,
		"output":   p.cfg.OutputPath,
	}).Info("build complete")

	p.update(func(s *Summary) { s.Done = true })
	p.emit(ctx, events, nil)
}

func (p *Pipeline) fetchAll(ctx context.Context, events chan<- Event, locations []string) []string {
	p.update(func(s *Summary) {
		s.Phase = PhaseFetch
		s.Playlists = len(locations)
	})
	p.emit(ctx, events, nil)

	texts := make([]string, len(locations))
	var g errgroup.Group
	for i, location := range locations {
		g.Go(func() error {
			text, err := p.cfg.Fetcher.Fetch(ctx, location)
			log.LogFetch(location, err == nil, err)
			if err != nil {
				metrics.PlaylistsFetched.WithLabelValues("unavailable").Inc()
				log.WithField("location", location).Warnf("playlist skipped: %v", err)
				p.update(func(s *Summary) { s.PlaylistsFailed++ })
				p.emit(ctx, events, nil)
				return nil
			}
			metrics.PlaylistsFetched.WithLabelValues("ok").Inc()
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()
	return texts
}

func (p *Pipeline) resolveAll(ctx context.Context, events chan<- Event, res *resolver.Resolver, names []string) {
	if len(names) == 0 {
		return
	}
	workerCount := min(p.cfg.WorkerCount, len(names))
	workCh := make(chan string)
	resultCh := make(chan resolver.Resolution)
	var wg sync.WaitGroup

	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range workCh {
				resolution, _ := res.Resolve(ctx, name)
				select {
				case resultCh <- resolution:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	p.update(func(s *Summary) { s.ActiveWorkers = workerCount })
	p.emit(ctx, events, nil)

	go func() {
		defer close(workCh)
		for _, name := range names {
			select {
			case workCh <- name:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for {
		select {
		case <-ctx.Done():
			p.update(func(s *Summary) { s.ActiveWorkers = 0 })
			return
		case resolution, ok := <-resultCh:
			if !ok {
				p.update(func(s *Summary) { s.ActiveWorkers = 0 })
				p.emit(ctx, events, nil)
				return
			}
			p.record(resolution)
			p.emit(ctx, events, nil)
		}
	}
}

func (p *Pipeline) record(resolution resolver.Resolution) {
	p.resolutions.Store(resolution.Name, resolution)
	if resolution.Err != nil {
		reason := fmt.Sprintf("%s lookup failed: %v", resolution.FailedStage, resolution.Err)
		log.LogSkip(resolution.Name, reason)
	}

	p.update(func(s *Summary) {
		s.ProcessedSeries++
		s.LastSeries = resolution.Name
		if resolution.Err != nil {
			s.SkippedSeries++
			s.Skipped = append(s.Skipped, resolution.Name)
		} else {
			s.ResolvedSeries++
		}
	})
}

func (p *Pipeline) saveCache(store *idcache.Store) error {
	err := store.Save(p.cfg.Fs, p.cfg.CachePath)
	log.LogCacheSave(p.cfg.CachePath, err == nil, err)
	if err != nil {
		return fmt.Errorf("save identifier cache: %w", err)
	}
	return nil
}

// cancel persists whatever the resolver learned and stops without writing
// the library.
func (p *Pipeline) cancel(ctx context.Context, events chan<- Event, store *idcache.Store) {
	saveErr := p.saveCache(store)
	p.setErr(errors.Join(ctx.Err(), saveErr))
	p.update(func(s *Summary) {
		s.Canceled = true
		s.ActiveWorkers = 0
		s.CacheEntries = store.Len()
	})
	log.Warnf("build cancelled, identifier cache saved, output not written")
	p.emit(ctx, events, ctx.Err())
}

func (p *Pipeline) fail(ctx context.Context, events chan<- Event, err error) {
	p.setErr(err)
	p.update(func(s *Summary) {
		s.Err = err.Error()
		s.Done = true
	})
	log.Errorf("build failed: %v", err)
	p.emit(ctx, events, err)
}

func (p *Pipeline) setErr(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

func (p *Pipeline) setPhase(phase string) {
	p.update(func(s *Summary) { s.Phase = phase })
}

func (p *Pipeline) update(fn func(*Summary)) {
	p.summaryMu.Lock()
	fn(&p.summary)
	p.summaryMu.Unlock()
}

func (p *Pipeline) emit(ctx context.Context, events chan<- Event, err error) {
	summary := p.SummarySnapshot()
	select {
	case events <- Event{Summary: summary, Err: err}:
	case <-ctx.Done():
	}
}
