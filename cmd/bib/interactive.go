package main

import (
	"github.com/matsen/bibshelf/internal/runner"
	"github.com/spf13/cobra"
)

var (
	interactiveExec      string
	interactiveYes       bool
	interactiveSkipFixes bool
)

func init() {
	rootCmd.Flags().StringVarP(&interactiveExec, "exec", "e", "", "Command to run before reading input (e.g. \"/ deep learning\")")
	rootCmd.Flags().BoolVarP(&interactiveYes, "yes", "y", false, "Apply confirmable fixes and write results without asking")
	rootCmd.Flags().BoolVar(&interactiveSkipFixes, "skip-fixes", false, "Do not run the fix rules on load")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(true)
	s, err := runner.Load(cfg, newConsole(), runner.Options{
		AssumeYes: interactiveYes,
		SkipFixes: interactiveSkipFixes,
	})
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}
	if err := s.Loop(interactiveExec); err != nil {
		exitWithError(exitCode(err), "%v", err)
	}
	return nil
}
