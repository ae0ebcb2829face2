package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/mik25/your-series/internal/idcache"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// maxNameWidth caps the name column so one long title cannot push the IDs
// off screen.
const maxNameWidth = 60

func init() {
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List the identifiers cached from previous builds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := idcache.Load(appFs, cfg.CachePath)
		if err != nil {
			return err
		}
		if store.Len() == 0 {
			cmd.Printf("No cached identifiers in %s\n", cfg.CachePath)
			return nil
		}
		printCache(cmd.OutOrStdout(), store)
		return nil
	},
}

func printCache(w io.Writer, store *idcache.Store) {
	names := store.Names()
	entries := store.Entries()

	nameWidth := min(lo.Max(lo.Map(names, func(name string, _ int) int {
		return runewidth.StringWidth(name)
	})), maxNameWidth)
	nameWidth = max(nameWidth, len("SERIES"))

	_, _ = fmt.Fprintf(w, "%s  %-8s  %s\n", runewidth.FillRight("SERIES", nameWidth), "TMDB", "IMDB")
	for _, name := range names {
		entry := entries[name]
		catalogID := "-"
		if entry.HasCatalogID() {
			catalogID = strconv.Itoa(entry.CatalogID)
		}
		crossRefID := entry.CrossRefID
		if crossRefID == "" {
			crossRefID = "-"
		}
		cell := runewidth.FillRight(runewidth.Truncate(name, nameWidth, "..."), nameWidth)
		_, _ = fmt.Fprintf(w, "%s  %-8s  %s\n", cell, catalogID, crossRefID)
	}
}
