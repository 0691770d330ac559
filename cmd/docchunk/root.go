package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/config"
)

var (
	cfgFile      string
	verbose      bool
	outputFormat string

	cfg    config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "docchunk",
	Short: "Turn layout-recognizer output into a RAG chunk corpus",
	Long: `docchunk maps Dolphin-style recognizer output (pages of labelled elements
with pixel boxes) to a grounded chunk corpus ready for retrieval.

Commands:
  transform   recognizer JSON -> chunk corpus JSON
  compare     score a corpus against an ideal corpus
  report      quality-control report for a transformed document
  table       convert a single HTML table
  config      write or show configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./docchunk.yaml or ~/.docchunk/docchunk.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "json", "output format for structured results: json or yaml",
	)

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(configCmd)
}
