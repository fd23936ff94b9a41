package main

import (
	"fmt"
	"strings"

	"github.com/matsen/bibshelf/internal/clipboard"
	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/reference"
	"github.com/matsen/bibshelf/internal/selection"
	"github.com/spf13/cobra"
)

var citeCopy bool

func init() {
	citeCmd.Flags().BoolVar(&citeCopy, "copy", false, "Also copy the citation to the clipboard")
	rootCmd.AddCommand(citeCmd)
}

var citeCmd = &cobra.Command{
	Use:   "cite <key|index-expression>...",
	Short: "Print a \\cite{} command for entries",
	Long: `Print a \cite{} command for the given entries.

Arguments are citation keys, or a single index expression over the library
order (e.g. "1 3 5:7" or "-1").`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCite,
}

// CiteResult is the response for the cite command.
type CiteResult struct {
	Citation string   `json:"citation"`
	IDs      []string `json:"ids"`
	Copied   bool     `json:"copied"`
}

func runCite(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	c := mustLoadCollection(cfg)

	entries, err := citeEntries(c, args)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	res := CiteResult{Citation: reference.CiteKeys(ids), IDs: ids}

	if citeCopy {
		if !clipboard.IsAvailable() {
			exitWithError(ExitError, "clipboard is not available")
		}
		if err := clipboard.Copy(res.Citation); err != nil {
			exitWithError(ExitError, "copying to clipboard: %v", err)
		}
		res.Copied = true
	}

	if humanOutput {
		fmt.Println(res.Citation)
		return nil
	}
	return outputJSON(res)
}

// citeEntries resolves arguments as an index expression over the library
// order when they parse as one, otherwise as citation keys.
func citeEntries(c *collection.Collection, args []string) ([]*reference.Entry, error) {
	expr := strings.Join(args, " ")
	if selection.IsIndexList(expr) {
		sel := selection.New(c.IDs())
		got, err := sel.SelectByIndex(expr)
		if err != nil {
			return nil, err
		}
		if len(got.Invalid) > 0 {
			return nil, fmt.Errorf("index out of range: %v (library has %d entries)", got.Invalid, c.Len())
		}
		var out []*reference.Entry
		for _, id := range sel.SelectedIDs(false) {
			out = append(out, c.Lookup(id))
		}
		return out, nil
	}

	var out []*reference.Entry
	var missing []string
	for _, key := range args {
		e := c.Lookup(key)
		if e == nil {
			missing = append(missing, key)
			continue
		}
		out = append(out, e)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no such entries: %s", formatIDList(missing))
	}
	return out, nil
}
