// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mzelen/statpaper/internal/corpus"
	"github.com/mzelen/statpaper/pkg/types"
)

const defaultMaxResults = 20

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the indexed corpus",
	Long: `Query searches the indexed corpus and prints matching papers with
their readability metrics. --search runs a full-text search over titles and
abstracts; the other flags filter by category, year, and metric thresholds.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("corpus-dir", defaultCorpusDir, "corpus directory")
	queryCmd.Flags().String("search", "", "full-text search over title and abstract")
	queryCmd.Flags().String("category", "", "filter by primary arXiv category")
	queryCmd.Flags().Int("year-from", 0, "earliest publication year, inclusive")
	queryCmd.Flags().Int("year-to", 0, "latest publication year, inclusive")
	queryCmd.Flags().Float64("max-flesch", 0, "keep papers at or below this Flesch Reading Ease score")
	queryCmd.Flags().Int("min-words", 0, "keep papers with at least this many words")
	queryCmd.Flags().Int("max-results", defaultMaxResults, "maximum number of results")
	queryCmd.Flags().Bool("json", false, "print results as JSON instead of a table")

	rootCmd.AddCommand(queryCmd)
}

func queryOptions(cmd *cobra.Command) corpus.QueryOptions {
	search, _ := cmd.Flags().GetString("search")
	category, _ := cmd.Flags().GetString("category")
	yearFrom, _ := cmd.Flags().GetInt("year-from")
	yearTo, _ := cmd.Flags().GetInt("year-to")
	maxFlesch, _ := cmd.Flags().GetFloat64("max-flesch")
	minWords, _ := cmd.Flags().GetInt("min-words")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return corpus.QueryOptions{
		Search:     search,
		Category:   category,
		YearFrom:   yearFrom,
		YearTo:     yearTo,
		MaxFlesch:  maxFlesch,
		MinWords:   minWords,
		MaxResults: maxResults,
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := corpus.NewStore(types.CorpusConfig{
		CorpusDir:  corpusDirFrom(cmd),
		MaxResults: defaultMaxResults,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), queryOptions(cmd))
	if err != nil {
		return err
	}

	if asJSON {
		return corpus.FormatJSON(records, os.Stdout)
	}
	corpus.FormatTable(records, os.Stdout)
	return nil
}
