// Package cmd implements the your-series command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mik25/your-series/internal/config"
	"github.com/mik25/your-series/internal/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs backs every file the commands touch. Tests swap in a MemMapFs.
var appFs afero.Fs = afero.NewOsFs()

// loadConfig is replaced in tests.
var loadConfig = config.Load

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "your-series",
	Short: "Build and serve a TV series library from M3U playlists",
	Long: `your-series downloads M3U playlists, groups their episodes by series,
resolves each series to its TMDB and IMDb identifiers and writes the result
as a JSON library. The library can then be served as a Stremio addon.

Settings come from ~/.your-series/config.json (or the file named by
YOUR_SERIES_CONFIG) and the TMDB_API_KEY, OMDB_API_KEY, PORT and LOG_LEVEL
environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetOut(os.Stdout)
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	handleErr(rootCmd.Execute())
}

func handleErr(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

// setup loads the configuration and prepares logging for a command run.
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, nil
}
