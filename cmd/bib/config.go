package main

import (
	"errors"
	"fmt"

	"github.com/matsen/bibshelf/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values in the global config file.

Usage:
  bib config                        # Show all config
  bib config bib_path               # Get specific value
  bib config bib_path ~/refs.bib    # Set value
  bib config pdf_reader zathura     # Set PDF reader

Keys:
  bib_path         Path to the BibTeX library
  pdf_dir          Directory holding PDFs (default: <bib dir>/pdfs)
  tmp_dir          Backup, index and history log directory
  pdf_reader       PDF reader (system, skim, zathura, evince, okular)
  editor           Editor command (default: $EDITOR)
  max_search       Maximum search results
  max_list         Maximum listed entries
  score_threshold  Minimum fuzzy search score (0-100)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(false)

	// No args: show all config
	if len(args) == 0 {
		all := make(map[string]string, len(config.Keys))
		for _, key := range config.Keys {
			v, _ := cfg.Get(key)
			all[key] = v
			if humanOutput {
				fmt.Printf("%-16s %s\n", key+":", v)
			}
		}
		if !humanOutput {
			return outputJSON(all)
		}
		return nil
	}

	key := args[0]

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return nil
	}

	// Two args: set value
	if err := cfg.Set(key, args[1]); err != nil {
		code := ExitConfigError
		if errors.Is(err, config.ErrUnknownKey) {
			code = ExitError
		}
		exitWithError(code, "%v", err)
	}
	if err := cfg.Save(config.GlobalConfigPath()); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	v, _ := cfg.Get(key)
	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, v)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: v})
	}
	return nil
}
