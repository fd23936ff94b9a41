package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/config"
	"github.com/matsen/bibshelf/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexKeywordsCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite query index",
	Long: `Manage the SQLite query index used by 'bib list'.

The index lives in tmp_dir and is rebuilt from the bib file whenever the
bib file is newer, so rebuilding by hand is only needed after corruption.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index from the bib file",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexKeywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Show how many entries use each keyword",
	Args:  cobra.NoArgs,
	RunE:  runIndexKeywords,
}

// KeywordCount is one row of the keywords command.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	c := mustLoadCollection(cfg)
	db := mustOpenIndex(cfg)
	defer db.Close()

	n, err := db.Rebuild(c.Ordered())
	if err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}
	if humanOutput {
		fmt.Printf("Rebuilt query index with %d entries\n", n)
		return nil
	}
	return outputJSON(StatusResponse{Status: "rebuilt", Path: cfg.DBPath(), Count: n})
}

func runIndexKeywords(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	c := mustLoadCollection(cfg)
	db := mustOpenFreshIndex(cfg, c)
	defer db.Close()

	counts, err := db.KeywordCounts()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	rows := make([]KeywordCount, 0, len(counts))
	for kw, n := range counts {
		rows = append(rows, KeywordCount{Keyword: kw, Count: n})
	}
	slices.SortFunc(rows, func(a, b KeywordCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Keyword < b.Keyword {
			return -1
		}
		return 1
	})

	if !humanOutput {
		return outputJSON(rows)
	}
	for _, r := range rows {
		fmt.Printf("%5d  %s\n", r.Count, r.Keyword)
	}
	return nil
}

// mustOpenIndex opens the SQLite index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenIndex(cfg *config.Config) *storage.DB {
	if err := os.MkdirAll(cfg.TmpDirectory(), 0755); err != nil {
		exitWithError(ExitError, "creating tmp directory: %v", err)
	}
	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	return db
}

// mustOpenFreshIndex opens the index and rebuilds it when the bib file is
// newer or the entry count differs.
func mustOpenFreshIndex(cfg *config.Config, c *collection.Collection) *storage.DB {
	stale := indexStale(cfg)
	db := mustOpenIndex(cfg)
	if !stale {
		n, err := db.Count()
		stale = err != nil || n != c.Len()
	}
	if stale {
		n, err := db.Rebuild(c.Ordered())
		if err != nil {
			db.Close()
			exitWithError(ExitDataError, "rebuilding index: %v", err)
		}
		logger.Debug("rebuilt query index", "entries", n)
	}
	return db
}

func indexStale(cfg *config.Config) bool {
	dbInfo, err := os.Stat(cfg.DBPath())
	if err != nil {
		return true
	}
	bibInfo, err := os.Stat(cfg.BibPath)
	if err != nil {
		return true
	}
	return bibInfo.ModTime().After(dbInfo.ModTime())
}
