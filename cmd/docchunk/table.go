package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/table"
)

var (
	tableContext string
	tableStrict  bool
)

var tableCmd = &cobra.Command{
	Use:   "table <table.html|->",
	Short: "Convert one HTML table to markdown, TSV and row sentences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		html := string(data)

		valid, reason := table.Validate(html)
		if !valid {
			logger.Warn("table failed validation", "reason", reason)
		}
		res := table.Convert(html, table.Options{Context: tableContext, Strict: tableStrict})
		for _, w := range res.Warnings {
			logger.Debug("conversion warning", "warning", w)
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, map[string]any{
			"valid":  valid,
			"reason": reason,
			"result": res,
		})
	},
}

func init() {
	tableCmd.Flags().StringVar(&tableContext, "context", "", "prefix for every row sentence")
	tableCmd.Flags().BoolVar(&tableStrict, "strict", false, "reject tables only the fallback parser can read")
}
