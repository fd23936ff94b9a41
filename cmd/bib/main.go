// Package main provides the bib CLI entry point.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/bibshelf/internal/collection"
	"github.com/matsen/bibshelf/internal/config"
	"github.com/matsen/bibshelf/internal/fixrule"
	"github.com/matsen/bibshelf/internal/storage"
	"github.com/matsen/bibshelf/internal/ui"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	debugLog    bool
	logger      *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bib",
	Short: "Interactive BibTeX bibliography manager",
	Long: `bib manages a personal BibTeX bibliography.

Without a subcommand it loads the configured bib file, runs the fix rules
(malformed titles, non-canonical citation keys, unknown keywords) and
starts an interactive session for searching, listing, tagging, citing
and merging entries.

The subcommands are non-interactive and print JSON by default.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		level := slog.LevelInfo
		if debugLog {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Log debug messages to stderr")
	rootCmd.Version = Version
}

// mustLoadConfig loads the global configuration, exits on error.
// With requireBib the configured bib file must exist.
func mustLoadConfig(requireBib bool) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if requireBib {
		if err := cfg.ValidateBibPath(); err != nil {
			if errors.Is(err, config.ErrBibPathNotConfigured) {
				fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
			}
			exitWithError(ExitConfigError, "%v", err)
		}
	}
	return cfg
}

// mustLoadCollection reads and indexes the bib file without running fixes.
func mustLoadCollection(cfg *config.Config) *collection.Collection {
	res, err := storage.ReadBib(cfg.BibPath)
	if err != nil {
		exitWithError(ExitDataError, "reading library: %v", err)
	}
	tags, err := storage.ReadTags(storage.TagsPath(cfg.BibPath))
	if err != nil {
		exitWithError(ExitDataError, "reading tags: %v", err)
	}
	c, err := collection.New(res.Entries, tags, logger)
	if err != nil {
		exitWithError(exitCode(err), "indexing library: %v", err)
	}
	return c
}

// newConsole returns a console on the standard streams.
func newConsole() *ui.Console {
	return ui.NewConsole(os.Stdin, os.Stdout, ui.DefaultTheme(), logger)
}

// exitCode maps an error onto the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, fixrule.ErrQuit):
		return ExitQuit
	case errors.Is(err, collection.ErrDuplicateKey),
		errors.Is(err, collection.ErrIndexCorruption),
		errors.Is(err, fixrule.ErrKeyCollision):
		return ExitDataError
	case errors.Is(err, config.ErrBibPathNotConfigured),
		errors.Is(err, config.ErrBibPathNotExist),
		errors.Is(err, storage.ErrNoBibPath):
		return ExitConfigError
	}
	return ExitError
}
