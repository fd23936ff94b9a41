package main

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listYear    string
	listKeyword string
	listAuthors []string
	listLimit   int
)

func init() {
	listCmd.Flags().StringVar(&listYear, "year", "", "Year or range (2020, 2020:2024, 2020:, :2024)")
	listCmd.Flags().StringVar(&listKeyword, "keyword", "", "Only entries with this keyword")
	listCmd.Flags().StringArrayVar(&listAuthors, "author", nil, "Author name prefix (repeatable, AND logic)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results (default: max_list from config)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [text]",
	Short: "List entries through the query index",
	Long: `List entries in library order, filtered through the SQLite index.

Free text matches title, authors and keywords. Filters combine with AND.

Examples:
  bib list --year 2020:2024
  bib list --keyword phylogenetics --author smith
  bib list "deep learning" --limit 5`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	from, to, err := storage.ParseYearRange(listYear)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	limit := listLimit
	if limit <= 0 {
		limit = cfg.MaxList
	}

	c := mustLoadCollection(cfg)
	db := mustOpenFreshIndex(cfg, c)
	defer db.Close()

	ids, err := db.Filter(storage.SearchFilters{
		Text:     strings.Join(args, " "),
		Authors:  listAuthors,
		Keyword:  listKeyword,
		YearFrom: from,
		YearTo:   to,
	}, limit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	entries := make([]*reference.Entry, 0, len(ids))
	for _, id := range ids {
		if e := c.Lookup(id); e != nil {
			entries = append(entries, e)
		}
	}

	if humanOutput {
		if len(entries) == 0 {
			fmt.Println("No entries.")
			return nil
		}
		newConsole().PrintEntries(entries, 0)
		return nil
	}
	results := make([]EntryResult, len(entries))
	for i, e := range entries {
		results[i] = entryResult(e)
	}
	return outputJSON(results)
}
