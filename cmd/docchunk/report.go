package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/report"
)

var (
	reportOpts   transformFlags
	reportOut    string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report <input.json|->",
	Short: "Quality-control report for a transformed document",
	Long: `Transform the input and report on it: recognizer element statistics,
oversized chunks, the markdown outline, table handling and recommendations.

Formats: markdown (default), html, json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, doc, err := reportOpts.run(cmd, args[0])
		if err != nil {
			return err
		}
		rep := report.Build(doc.DocID, pages, doc, time.Now().UTC())

		out, err := openOutput(cmd, reportOut)
		if err != nil {
			return err
		}
		defer out.Close()

		switch reportFormat {
		case "markdown", "md":
			_, err = fmt.Fprintln(out, rep.Markdown())
		case "html":
			var html string
			if html, err = report.HTML(rep.Markdown()); err == nil {
				_, err = fmt.Fprint(out, html)
			}
		case "json":
			err = writeOutput(out, "json", rep)
		default:
			err = fmt.Errorf("unknown report format: %s", reportFormat)
		}
		if err != nil {
			return err
		}

		if !rep.Passed() {
			logger.Warn("oversized chunks found", "count", len(rep.Chunks.Oversized))
		}
		return nil
	},
}

func init() {
	reportOpts.register(reportCmd.Flags())
	reportCmd.Flags().StringVarP(&reportOut, "out", "O", "", "output file (default stdout)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "markdown, html or json")
}
