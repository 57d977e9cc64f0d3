// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// exportLimit bounds export size; far beyond any realistic corpus.
const exportLimit = 100000

// csvHeader is the column set of the exported corpus CSV.
var csvHeader = []string{
	"arxiv_id", "title", "authors", "published_date", "category",
	"pdf_path", "text_path", "word_count", "sentence_count",
	"avg_sentence_length", "flesch_reading_ease", "gunning_fog",
	"smog_index", "display_equations", "inline_equations",
	"abstract", "version",
}

// ExportCSV writes the corpus to path as CSV, one row per paper. Papers
// without metrics get empty metric columns. The same filters as Query apply.
func (s *Store) ExportCSV(ctx context.Context, path string, opts QueryOptions) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Title,
			strings.Join(rec.Authors, "|"),
			"",
			rec.Category,
			rec.PDFPath,
			rec.TextPath,
			"", "", "", "", "", "", "", "",
			rec.Abstract,
			strconv.Itoa(rec.Version),
		}
		if !rec.Date.IsZero() {
			row[3] = rec.Date.Format("2006-01-02")
		}
		if m := rec.Metrics; m != nil {
			row[7] = strconv.Itoa(m.WordCount)
			row[8] = strconv.Itoa(m.SentenceCount)
			row[9] = strconv.FormatFloat(m.AvgSentenceLength, 'f', 2, 64)
			row[10] = strconv.FormatFloat(m.FleschReadingEase, 'f', 2, 64)
			row[11] = strconv.FormatFloat(m.GunningFog, 'f', 2, 64)
			row[12] = strconv.FormatFloat(m.SMOGIndex, 'f', 2, 64)
			row[13] = strconv.Itoa(rec.DisplayEquations)
			row[14] = strconv.Itoa(rec.InlineEquations)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// ExportYAML writes the corpus to path as a YAML list of records.
func (s *Store) ExportYAML(ctx context.Context, path string, opts QueryOptions) error {
	records, err := s.exportRecords(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportRecords(ctx context.Context, opts QueryOptions) ([]Record, error) {
	opts.MaxResults = exportLimit
	return s.Query(ctx, opts)
}
