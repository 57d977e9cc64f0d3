// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mzelen/statpaper/internal/extract"
	"github.com/mzelen/statpaper/internal/metrics"
)

var extractCmd = &cobra.Command{
	Use:   "extract [paper-id...]",
	Short: "Extract text from harvested PDFs and score readability",
	Long: `Extract converts harvested PDFs to plain text, lifts LaTeX equations
into placeholders, and computes readability statistics for each paper. The
text and per-paper stats are written next to the PDFs in the corpus
directory.

With no arguments every PDF in the corpus that has no extracted text yet is
processed. With --watch the command keeps running and extracts new PDFs as
they appear.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("corpus-dir", defaultCorpusDir, "corpus directory")
	extractCmd.Flags().Int("concurrency", runtime.NumCPU(), "number of PDFs to process in parallel")
	extractCmd.Flags().Int("min-sentence-len", metrics.DefaultOptions().MinSentenceLen, "minimum sentence length in characters")
	extractCmd.Flags().Int("max-sentence-len", metrics.DefaultOptions().MaxSentenceLen, "maximum sentence length in characters")
	extractCmd.Flags().Bool("watch", false, "watch the corpus for new PDFs and extract them as they arrive")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	watch, _ := f.GetBool("watch")

	cfg := pipelineConfig().Extract
	if cfg.CorpusDir == "" || f.Changed("corpus-dir") {
		cfg.CorpusDir, _ = f.GetString("corpus-dir")
	}
	if cfg.Concurrency == 0 || f.Changed("concurrency") {
		cfg.Concurrency, _ = f.GetInt("concurrency")
	}
	if cfg.MinSentenceLen == 0 || f.Changed("min-sentence-len") {
		cfg.MinSentenceLen, _ = f.GetInt("min-sentence-len")
	}
	if cfg.MaxSentenceLen == 0 || f.Changed("max-sentence-len") {
		cfg.MaxSentenceLen, _ = f.GetInt("max-sentence-len")
	}

	ex := extract.PDFExtractor{}

	if watch {
		fmt.Fprintf(os.Stdout, "Watching %s for new PDFs (Ctrl-C to stop)\n", cfg.CorpusDir)
		return extract.Watch(cmd.Context(), ex, cfg, os.Stdout)
	}

	ids := args
	if len(ids) == 0 {
		var err error
		ids, err = extract.ListPDFIDs(cfg.CorpusDir)
		if err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stdout, "No PDFs found to extract.")
		return nil
	}

	result := extract.ExtractBatch(cmd.Context(), ex, ids, cfg, os.Stdout)

	fmt.Fprintf(os.Stdout, "\nExtraction complete: %d extracted, %d skipped, %d failed\n",
		result.Extracted, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%d papers failed to extract", result.Failed)
	}
	return nil
}
