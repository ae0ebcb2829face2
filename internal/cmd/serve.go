package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mik25/your-series/internal/addon"
	"github.com/mik25/your-series/internal/config"
	"github.com/mik25/your-series/internal/library"
	"github.com/mik25/your-series/internal/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the series library as a Stremio addon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		srv, err := newServer(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Serve(ctx, fmt.Sprintf(":%d", cfg.ServerPort))
	},
}

// newServer loads every library file matching the configured glob.
func newServer(cfg *config.Config) (*addon.Server, error) {
	dir, pattern := filepath.Split(cfg.LibraryGlob)
	if dir == "" {
		dir = "."
	}
	series, err := library.LoadGlob(appFs, filepath.Clean(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	idx := addon.NewIndex(series)
	log.WithField("glob", cfg.LibraryGlob).Infof("loaded %d series from library", idx.Len())

	addonCfg := addon.Config{ID: cfg.AddonID, Name: cfg.AddonName}
	if cfg.CheckStreams {
		addonCfg.Checker = addon.HeadChecker{
			Client:  &http.Client{},
			Timeout: cfg.StreamCheckTimeout(),
		}
	}
	return addon.NewServer(idx, addonCfg), nil
}
