// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mzelen/statpaper/internal/corpus"
	"github.com/mzelen/statpaper/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the indexed corpus to CSV or YAML",
	Long: `Export writes the indexed corpus, joined with readability metrics,
to a single CSV or YAML file. The same filters as query apply, but all
matching papers are exported regardless of --max-results.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("corpus-dir", defaultCorpusDir, "corpus directory")
	exportCmd.Flags().String("format", "csv", "output format: csv or yaml")
	exportCmd.Flags().String("output", "", "output file (default: metadata.csv or metadata.yaml in the corpus directory)")
	exportCmd.Flags().String("search", "", "full-text search over title and abstract")
	exportCmd.Flags().String("category", "", "filter by primary arXiv category")
	exportCmd.Flags().Int("year-from", 0, "earliest publication year, inclusive")
	exportCmd.Flags().Int("year-to", 0, "latest publication year, inclusive")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	corpusDir := corpusDirFrom(cmd)
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := corpus.NewStore(types.CorpusConfig{CorpusDir: corpusDir})
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptions(cmd)
	opts.MaxResults = 0
	opts.MinWords = 0
	opts.MaxFlesch = 0

	switch format {
	case "csv":
		if output == "" {
			output = corpusDir + "/metadata.csv"
		}
		err = store.ExportCSV(cmd.Context(), output, opts)
	case "yaml":
		if output == "" {
			output = corpusDir + "/metadata.yaml"
		}
		err = store.ExportYAML(cmd.Context(), output, opts)
	default:
		return fmt.Errorf("unknown export format %q: expected csv or yaml", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Exported corpus to", output)
	return nil
}
