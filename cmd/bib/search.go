package main

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/search"
	"github.com/spf13/cobra"
)

var (
	searchLimit     int
	searchThreshold int
	searchField     string
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results (default: max_search from config)")
	searchCmd.Flags().IntVar(&searchThreshold, "threshold", -1, "Minimum score 0-100 (default: score_threshold from config)")
	searchCmd.Flags().StringVar(&searchField, "field", "", "Search only this field (id, title, author, keywords)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search over the library",
	Long: `Fuzzy search over id, title, author and keywords.

Each field is scored with a partial ratio (0-100) against the lowercased
query with stop words removed; an entry's score is its best field score.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	query := strings.Join(args, " ")
	if search.Preprocess(query) == "" {
		exitWithError(ExitError, "nothing to search for in %q", query)
	}

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.MaxSearch
	}
	threshold := searchThreshold
	if threshold < 0 {
		threshold = cfg.ScoreThreshold
	}
	opts := []search.Option{search.WithThreshold(threshold), search.WithLimit(limit)}
	if searchField != "" {
		opts = append(opts, search.WithFields(searchField))
	}
	engine := search.New(opts...)

	c := mustLoadCollection(cfg)
	results := engine.Search(c, query)

	out := make([]EntryResult, 0, len(results))
	entries := make([]*reference.Entry, 0, len(results))
	for _, r := range results {
		e := c.Lookup(r.ID)
		if e == nil {
			continue
		}
		res := entryResult(e)
		res.Score = r.Score
		out = append(out, res)
		entries = append(entries, e)
	}

	if humanOutput {
		if len(out) == 0 {
			fmt.Println("No results.")
			return nil
		}
		newConsole().PrintEntries(entries, 0)
		return nil
	}
	return outputJSON(out)
}
