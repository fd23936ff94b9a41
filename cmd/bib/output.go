package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/bibshelf/internal/reference"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count"`
}

// EntryResult is an entry in list and search output.
type EntryResult struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Year     string   `json:"year,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	File     string   `json:"file,omitempty"`
	Score    int      `json:"score,omitempty"`
}

func entryResult(e *reference.Entry) EntryResult {
	return EntryResult{
		ID:       e.ID,
		Title:    e.Title,
		Authors:  e.Author,
		Year:     e.Year,
		Keywords: e.Keywords,
		File:     e.File,
	}
}

// formatIDList formats a list of IDs as a comma-separated string.
func formatIDList(ids []string) string {
	return strings.Join(ids, ", ")
}
