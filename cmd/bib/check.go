package main

import (
	"fmt"

	"github.com/matsen/bibshelf/internal/reference"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report entries without pages or publisher",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Entries      int                 `json:"entries"`
	Incomplete   int                 `json:"incomplete"`
	MissingField map[string][]string `json:"missing_field"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	c := mustLoadCollection(cfg)
	perEntry, perField := c.CheckForMissingFields()

	if !humanOutput {
		return outputJSON(CheckResult{
			Entries:      c.Len(),
			Incomplete:   len(perEntry),
			MissingField: perField,
		})
	}
	if len(perEntry) == 0 {
		fmt.Println("No entries with missing fields.")
		return nil
	}
	console := newConsole()
	for _, field := range []string{"pages", "publisher"} {
		ids := perField[field]
		console.Message(fmt.Sprintf("%d entries without %s:", len(ids), field))
		entries := make([]*reference.Entry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, c.Lookup(id))
		}
		console.PrintEntries(entries, 0)
	}
	return nil
}
