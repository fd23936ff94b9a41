package main

import (
	"fmt"

	"github.com/matsen/bibshelf/internal/runner"
	"github.com/spf13/cobra"
)

var fixYes bool

func init() {
	fixCmd.Flags().BoolVarP(&fixYes, "yes", "y", false, "Apply every confirmable fix with its default answer")
	rootCmd.AddCommand(fixCmd)
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Run the fix rules over the library",
	Long: `Run the fix rules over the library and exit.

Rules: missing author/year/title, unknown keywords, trailing periods in
titles, citation keys that differ from the canonical author+year+title key.
Without --yes each fix asks for confirmation on the terminal.`,
	Args: cobra.NoArgs,
	RunE: runFix,
}

// FixResult is the response for the fix command.
type FixResult struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Fixes   int    `json:"fixes"`
	Entries int    `json:"entries"`
	Written bool   `json:"written"`
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	s, err := runner.Load(cfg, newConsole(), runner.Options{AssumeYes: fixYes})
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Applied %d fixes to %d entries", s.NumFixes, s.Collection.Len())
		if s.Written {
			fmt.Printf(", wrote %s", cfg.BibPath)
		}
		fmt.Println()
		return nil
	}
	return outputJSON(FixResult{
		Status:  "fixed",
		Path:    cfg.BibPath,
		Fixes:   s.NumFixes,
		Entries: s.Collection.Len(),
		Written: s.Written,
	})
}
