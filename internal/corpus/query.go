// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mzelen/statpaper/pkg/types"
)

// QueryOptions holds parameters for corpus queries.
type QueryOptions struct {
	// Search is the FTS5 match string over titles and abstracts.
	Search string

	// Category filters by primary arXiv category.
	Category string

	// YearFrom and YearTo bound the publication year, inclusive.
	// Zero means unbounded.
	YearFrom int
	YearTo   int

	// MaxFlesch keeps only papers at or below the given Flesch Reading
	// Ease score (i.e. at least this hard to read). Zero disables.
	MaxFlesch float64

	// MinWords keeps only papers with at least this many words. Zero disables.
	MinWords int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Record is a paper joined with its readability metrics. Metrics is nil
// for papers that have not been extracted.
type Record struct {
	types.Paper `yaml:",inline"`
	Metrics     *types.Readability `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// DisplayEquations and InlineEquations count the equations lifted
	// from the paper text. Both are zero when Metrics is nil.
	DisplayEquations int `json:"display_equations,omitempty" yaml:"display_equations,omitempty"`
	InlineEquations  int `json:"inline_equations,omitempty" yaml:"inline_equations,omitempty"`
}

// Query returns papers matching the options, FTS-ranked when a search
// string is given and ordered by category then ID otherwise.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Record, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Search != ""
	)

	const cols = `p.id, p.version, p.title, p.authors, p.date, p.category,
		p.abstract, p.source_url, p.pdf_path, p.text_path, p.extraction_status,
		m.word_count, m.sentence_count, m.avg_sentence_length,
		m.flesch_reading_ease, m.gunning_fog, m.smog_index,
		m.display_equations, m.inline_equations`

	if useFTS {
		qb.WriteString(`SELECT ` + cols + `
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			LEFT JOIN metrics m ON m.paper_id = p.id
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Search)
	} else {
		qb.WriteString(`SELECT ` + cols + `
			FROM papers p
			LEFT JOIN metrics m ON m.paper_id = p.id
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND p.category = ?`)
		args = append(args, opts.Category)
	}
	if opts.YearFrom > 0 {
		qb.WriteString(` AND p.date >= ?`)
		args = append(args, fmt.Sprintf("%04d-01-01T00:00:00Z", opts.YearFrom))
	}
	if opts.YearTo > 0 {
		qb.WriteString(` AND p.date <= ?`)
		args = append(args, fmt.Sprintf("%04d-12-31T23:59:59Z", opts.YearTo))
	}
	if opts.MaxFlesch != 0 {
		qb.WriteString(` AND m.flesch_reading_ease <= ?`)
		args = append(args, opts.MaxFlesch)
	}
	if opts.MinWords > 0 {
		qb.WriteString(` AND m.word_count >= ?`)
		args = append(args, opts.MinWords)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.category, p.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec         Record
		authorsJSON sql.NullString
		dateStr     sql.NullString
		status      sql.NullString
		wordCount   sql.NullInt64
		sentCount   sql.NullInt64
		avgLen      sql.NullFloat64
		flesch      sql.NullFloat64
		fog         sql.NullFloat64
		smog        sql.NullFloat64
		eqDisplay   sql.NullInt64
		eqInline    sql.NullInt64
	)

	if err := rows.Scan(
		&rec.ID, &rec.Version, &rec.Title, &authorsJSON, &dateStr, &rec.Category,
		&rec.Abstract, &rec.SourceURL, &rec.PDFPath, &rec.TextPath, &status,
		&wordCount, &sentCount, &avgLen, &flesch, &fog, &smog,
		&eqDisplay, &eqInline,
	); err != nil {
		return rec, fmt.Errorf("scanning row: %w", err)
	}

	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &rec.Authors)
	}
	if dateStr.Valid && dateStr.String != "" {
		if t, err := time.Parse(time.RFC3339, dateStr.String); err == nil {
			rec.Date = t
		}
	}
	if status.Valid {
		rec.ExtractionStatus = types.ExtractionStatus(status.String)
	}

	if wordCount.Valid {
		rec.DisplayEquations = int(eqDisplay.Int64)
		rec.InlineEquations = int(eqInline.Int64)
		rec.Metrics = &types.Readability{
			WordCount:         int(wordCount.Int64),
			SentenceCount:     int(sentCount.Int64),
			AvgSentenceLength: avgLen.Float64,
			FleschReadingEase: flesch.Float64,
			GunningFog:        fog.Float64,
			SMOGIndex:         smog.Float64,
		}
	}

	return rec, nil
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []Record, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-12s  %-50s  %-9s  %-4s  %7s  %7s  %6s\n",
		"ID", "Title", "Category", "Year", "Words", "Flesch", "Fog")
	fmt.Fprintln(w, strings.Repeat("-", 108))

	for _, rec := range records {
		title := rec.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		year := ""
		if !rec.Date.IsZero() {
			year = fmt.Sprintf("%d", rec.Date.Year())
		}

		words, flesch, fog := "-", "-", "-"
		if rec.Metrics != nil {
			words = fmt.Sprintf("%d", rec.Metrics.WordCount)
			flesch = fmt.Sprintf("%.1f", rec.Metrics.FleschReadingEase)
			fog = fmt.Sprintf("%.1f", rec.Metrics.GunningFog)
		}

		fmt.Fprintf(w, "%-12s  %-50s  %-9s  %-4s  %7s  %7s  %6s\n",
			rec.ID, title, rec.Category, year, words, flesch, fog)
	}

	fmt.Fprintf(w, "\n%d papers\n", len(records))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []Record, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
