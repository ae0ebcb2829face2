package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mik25/your-series/internal/config"
	"github.com/mik25/your-series/internal/log"
	"github.com/mik25/your-series/internal/pipeline"
	"github.com/mik25/your-series/internal/playlist"
	"github.com/mik25/your-series/internal/provider"
	"github.com/mik25/your-series/internal/provider/omdb"
	"github.com/mik25/your-series/internal/provider/tmdb"
	"github.com/mik25/your-series/internal/tui/progress"
	"github.com/mik25/your-series/internal/tui/theme"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch the configured playlists and write the series library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		log.Initialize(cfg.EnableLogging, cfg.LogRetentionDays)
		if err := log.StartSession("build", args); err != nil {
			log.Warnf("failed to start session log: %v", err)
		}
		defer func() {
			if err := log.EndSession(); err != nil {
				log.Warnf("failed to write session log: %v", err)
			}
		}()

		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		var summary pipeline.Summary
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			summary, err = runInteractive(cmd.Context(), p, newProgram)
		} else {
			summary, err = runPlain(cmd.Context(), p)
		}
		if err != nil {
			return err
		}

		printSummary(cmd, cfg, summary)
		return nil
	},
}

// newPipeline wires the providers and fetcher described by cfg.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	catalog, err := tmdb.New(tmdb.Config{
		APIKey:     cfg.TMDBAPIKey,
		Language:   cfg.TMDBLanguage,
		RateLimit:  cfg.TMDBRateLimit,
		RateWindow: cfg.TMDBRateWindow(),
		Timeout:    cfg.RequestTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tmdb provider: %w", err)
	}

	// A nil *omdb.Provider must not reach the interface.
	var fallback provider.TitleCrossRefFetcher
	if cfg.OMDBAPIKey != "" {
		fb, err := omdb.New(omdb.Config{APIKey: cfg.OMDBAPIKey, Timeout: cfg.RequestTimeout()})
		if err != nil {
			return nil, fmt.Errorf("failed to create omdb provider: %w", err)
		}
		fallback = fb
	}

	fetcher := playlist.NewFetcher(
		playlist.WithFs(appFs),
		playlist.WithUserAgent(cfg.UserAgent),
		playlist.WithTimeout(cfg.RequestTimeout()),
	)

	return pipeline.New(pipeline.Config{
		Fs:          appFs,
		ListPath:    cfg.PlaylistList,
		OutputPath:  cfg.OutputPath,
		CachePath:   cfg.CachePath,
		WorkerCount: cfg.WorkerCount,
		Fetcher:     fetcher,
		Catalog:     catalog,
		CrossRef:    catalog,
		Fallback:    fallback,
	})
}

func newProgram(model tea.Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(model, append(opts, tea.WithAltScreen())...)
}

// runInteractive drives p behind the progress view. bubbletea handles
// SIGINT and SIGTERM itself without passing them to the model, so the build
// context listens for them too.
func runInteractive(ctx context.Context, p *pipeline.Pipeline, program func(tea.Model, ...tea.ProgramOption) *tea.Program) (pipeline.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	model := progress.NewBuildProgressModel(p, theme.Default(), progress.WithContext(ctx))
	_, runErr := program(model, tea.WithContext(ctx)).Run()

	// The pipeline keeps going after a cancel until the cache is saved.
	model.Stop()

	if runErr != nil && !errors.Is(runErr, tea.ErrInterrupted) && !errors.Is(runErr, tea.ErrProgramKilled) {
		return p.SummarySnapshot(), errors.Join(fmt.Errorf("progress display failed: %w", runErr), buildErr(p.Err()))
	}
	return p.SummarySnapshot(), buildErr(p.Err())
}

func runPlain(ctx context.Context, p *pipeline.Pipeline) (pipeline.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	return summary, buildErr(err)
}

// buildErr drops the cancellation itself so an interrupted build exits
// cleanly once the cache is saved. Anything joined with it is kept.
func buildErr(err error) error {
	if err == nil || !errors.Is(err, context.Canceled) {
		return err
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var rest []error
		for _, e := range joined.Unwrap() {
			if !errors.Is(e, context.Canceled) {
				rest = append(rest, e)
			}
		}
		return errors.Join(rest...)
	}
	return nil
}

func printSummary(cmd *cobra.Command, cfg *config.Config, s pipeline.Summary) {
	if s.Canceled {
		cmd.Printf("Build cancelled. Identifier cache saved to %s (%d entries)\n", cfg.CachePath, s.CacheEntries)
		return
	}
	cmd.Printf("Wrote %d series (%d episodes) to %s\n", s.OutputSeries, s.OutputEpisodes, cfg.OutputPath)
	cmd.Printf("Playlists: %d fetched, %d unavailable\n", s.Playlists-s.PlaylistsFailed, s.PlaylistsFailed)
	if len(s.Skipped) > 0 {
		cmd.Printf("Skipped %d series without identifiers\n", len(s.Skipped))
	}
}
