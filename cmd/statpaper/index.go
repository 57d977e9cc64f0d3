// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mzelen/statpaper/internal/corpus"
	"github.com/mzelen/statpaper/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index harvested papers into the corpus database",
	Long: `Index loads paper metadata and readability stats from the corpus
directory into a SQLite database with full-text search over titles and
abstracts. Indexing is incremental: papers whose files have not changed since
the last run are skipped.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("corpus-dir", defaultCorpusDir, "corpus directory")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	store, err := corpus.NewStore(types.CorpusConfig{CorpusDir: corpusDirFrom(cmd)})
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nIndexing complete: %d indexed, %d updated, %d skipped, %d failed\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d papers failed to index", summary.Failed)
	}
	return nil
}
