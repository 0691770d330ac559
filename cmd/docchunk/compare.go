package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/compare"
)

var compareIoU float64

var compareCmd = &cobra.Command{
	Use:   "compare <live.json> <ideal.json>",
	Short: "Score a chunk corpus against an ideal corpus",
	Long: `Score a chunk corpus against an ideal corpus.

Prints the field/count comparison with its score and label, the
similarity metrics, and how many live boxes overlap an ideal box.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		live, err := loadCorpus(args[0])
		if err != nil {
			return err
		}
		ideal, err := loadCorpus(args[1])
		if err != nil {
			return err
		}

		rep := compare.Compare(live, ideal)
		logger.Info("comparison", "score", rep.Score, "label", rep.Label)
		return writeOutput(cmd.OutOrStdout(), outputFormat, map[string]any{
			"comparison": rep,
			"similarity": compare.Similarity(live, ideal),
			"alignment":  compare.AlignBoxes(live, ideal, compareIoU),
		})
	},
}

func loadCorpus(path string) (*compare.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := compare.LoadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func init() {
	compareCmd.Flags().Float64Var(&compareIoU, "iou", compare.DefaultIoU, "minimum IoU for a box match")
}
