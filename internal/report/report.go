// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders descriptive statistics over the indexed corpus.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/mzelen/statpaper/internal/corpus"
)

const reportFile = "corpus_report.txt"

// categoryAggregate accumulates per-category metric sums.
type categoryAggregate struct {
	papers    int
	extracted int
	words     float64
	flesch    float64
	fog       float64
	smog      float64
	eqDisplay int
	eqInline  int
}

// Render writes a descriptive report over the records to w. It covers
// corpus composition (categories, years) and readability distributions.
// Inferential statistics are out of scope; the report is descriptive only.
func Render(records []corpus.Record, w io.Writer) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "Corpus is empty. Run harvest, extract, and index first.")
		return nil
	}

	byCategory := make(map[string]*categoryAggregate)
	byYear := make(map[int]int)
	var wordCounts []float64
	minYear, maxYear := 0, 0

	for _, rec := range records {
		cat := rec.Category
		if cat == "" {
			cat = "unknown"
		}
		agg := byCategory[cat]
		if agg == nil {
			agg = &categoryAggregate{}
			byCategory[cat] = agg
		}
		agg.papers++

		if !rec.Date.IsZero() {
			y := rec.Date.Year()
			byYear[y]++
			if minYear == 0 || y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}

		if m := rec.Metrics; m != nil && m.WordCount > 0 {
			agg.extracted++
			agg.words += float64(m.WordCount)
			agg.flesch += m.FleschReadingEase
			agg.fog += m.GunningFog
			agg.smog += m.SMOGIndex
			agg.eqDisplay += rec.DisplayEquations
			agg.eqInline += rec.InlineEquations
			wordCounts = append(wordCounts, float64(m.WordCount))
		}
	}

	fmt.Fprintln(w, "Corpus Report")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Total papers:     %d\n", len(records))
	fmt.Fprintf(w, "With metrics:     %d\n", len(wordCounts))
	if minYear > 0 {
		fmt.Fprintf(w, "Time range:       %d - %d\n", minYear, maxYear)
	}

	fmt.Fprintln(w, "\nPapers by category")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, cat := range sortedKeys(byCategory) {
		fmt.Fprintf(w, "  %-12s %6d\n", cat, byCategory[cat].papers)
	}

	if len(byYear) > 0 {
		fmt.Fprintln(w, "\nPapers by year")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			fmt.Fprintf(w, "  %d         %6d\n", y, byYear[y])
		}
	}

	if len(wordCounts) > 0 {
		if err := renderWordCounts(wordCounts, w); err != nil {
			return err
		}

		fmt.Fprintln(w, "\nMean readability by category")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		fmt.Fprintf(w, "  %-12s %9s %8s %8s %8s\n", "Category", "Words", "Flesch", "Fog", "SMOG")
		for _, cat := range sortedKeys(byCategory) {
			agg := byCategory[cat]
			if agg.extracted == 0 {
				continue
			}
			n := float64(agg.extracted)
			fmt.Fprintf(w, "  %-12s %9.0f %8.1f %8.1f %8.1f\n",
				cat, agg.words/n, agg.flesch/n, agg.fog/n, agg.smog/n)
		}

		fmt.Fprintln(w, "\nEquation counts by category")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		fmt.Fprintf(w, "  %-12s %9s %8s %12s\n", "Category", "Display", "Inline", "Eq./paper")
		for _, cat := range sortedKeys(byCategory) {
			agg := byCategory[cat]
			if agg.extracted == 0 {
				continue
			}
			perPaper := float64(agg.eqDisplay+agg.eqInline) / float64(agg.extracted)
			fmt.Fprintf(w, "  %-12s %9d %8d %12.1f\n",
				cat, agg.eqDisplay, agg.eqInline, perPaper)
		}
	}

	return nil
}

// renderWordCounts prints the word-count distribution summary.
func renderWordCounts(wordCounts []float64, w io.Writer) error {
	mean, err := stats.Mean(wordCounts)
	if err != nil {
		return fmt.Errorf("computing mean: %w", err)
	}
	median, err := stats.Median(wordCounts)
	if err != nil {
		return fmt.Errorf("computing median: %w", err)
	}
	stdDev, err := stats.StandardDeviation(wordCounts)
	if err != nil {
		return fmt.Errorf("computing stddev: %w", err)
	}
	minV, err := stats.Min(wordCounts)
	if err != nil {
		return fmt.Errorf("computing min: %w", err)
	}
	maxV, err := stats.Max(wordCounts)
	if err != nil {
		return fmt.Errorf("computing max: %w", err)
	}

	fmt.Fprintln(w, "\nWord count distribution")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "  mean:   %10.1f\n", mean)
	fmt.Fprintf(w, "  median: %10.1f\n", median)
	fmt.Fprintf(w, "  stddev: %10.1f\n", stdDev)
	fmt.Fprintf(w, "  min:    %10.0f\n", minV)
	fmt.Fprintf(w, "  max:    %10.0f\n", maxV)

	// Quartile halves the sample and returns NaN quartiles (with a nil
	// error) when a half is empty, so a lone sample gets no quartile lines.
	if len(wordCounts) >= 2 {
		if quartiles, err := stats.Quartile(wordCounts); err == nil {
			fmt.Fprintf(w, "  q1:     %10.1f\n", quartiles.Q1)
			fmt.Fprintf(w, "  q3:     %10.1f\n", quartiles.Q3)
		}
	}

	return nil
}

// Write renders the report to analysisDir/corpus_report.txt and also to w.
func Write(records []corpus.Record, analysisDir string, w io.Writer) error {
	if err := os.MkdirAll(analysisDir, 0o755); err != nil {
		return fmt.Errorf("creating analysis directory: %w", err)
	}

	var b strings.Builder
	if err := Render(records, &b); err != nil {
		return err
	}

	path := filepath.Join(analysisDir, reportFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string]*categoryAggregate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
