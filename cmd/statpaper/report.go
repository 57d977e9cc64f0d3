// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mzelen/statpaper/internal/corpus"
	"github.com/mzelen/statpaper/internal/report"
	"github.com/mzelen/statpaper/pkg/types"
)

// reportLimit covers every paper the corpus could plausibly hold.
const reportLimit = 100000

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a descriptive report over the indexed corpus",
	Long: `Report summarizes the indexed corpus: paper counts by category and
year, word-count distribution, and mean readability scores per category. The
report is printed and written to the analysis directory.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("corpus-dir", defaultCorpusDir, "corpus directory")
	reportCmd.Flags().String("analysis-dir", "analysis", "directory the report file is written to")
	reportCmd.Flags().String("category", "", "restrict the report to one arXiv category")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

	analysisDir := pipelineConfig().Report.AnalysisDir
	if analysisDir == "" || cmd.Flags().Changed("analysis-dir") {
		analysisDir, _ = cmd.Flags().GetString("analysis-dir")
	}

	store, err := corpus.NewStore(types.CorpusConfig{CorpusDir: corpusDirFrom(cmd)})
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), corpus.QueryOptions{
		Category:   category,
		MaxResults: reportLimit,
	})
	if err != nil {
		return err
	}

	return report.Write(records, analysisDir, os.Stdout)
}
