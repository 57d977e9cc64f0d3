// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mzelen/statpaper/internal/harvest"
	"github.com/mzelen/statpaper/internal/metrics"
	"github.com/mzelen/statpaper/pkg/types"
)

const (
	textDir  = "text"
	statsDir = "stats"
)

// TextPath returns the extracted-text path for a paper ID.
func TextPath(corpusDir, id string) string {
	return filepath.Join(corpusDir, textDir, id+".txt")
}

// StatsPath returns the per-paper stats YAML path for a paper ID.
func StatsPath(corpusDir, id string) string {
	return filepath.Join(corpusDir, statsDir, id+".yaml")
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the total number of PDFs processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any PDFs failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// metricOptions derives the sentence filter bounds from config.
func metricOptions(cfg types.ExtractConfig) metrics.Options {
	opts := metrics.DefaultOptions()
	if cfg.MinSentenceLen > 0 {
		opts.MinSentenceLen = cfg.MinSentenceLen
	}
	if cfg.MaxSentenceLen > 0 {
		opts.MaxSentenceLen = cfg.MaxSentenceLen
	}
	return opts
}

// ExtractPaper converts one PDF to cleaned text, lifts equations, computes
// readability statistics, and writes the text file and stats YAML. When the
// text file already exists the paper is skipped. The paper's metadata record
// is updated with the text path and extraction status when present.
func ExtractPaper(ex TextExtractor, id string, cfg types.ExtractConfig, w io.Writer) types.ExtractionStatus {
	textPath := TextPath(cfg.CorpusDir, id)
	if _, err := os.Stat(textPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", id)
		return types.ExtractionNone
	}

	for _, dir := range []string{
		filepath.Join(cfg.CorpusDir, textDir),
		filepath.Join(cfg.CorpusDir, statsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			return types.ExtractionFailed
		}
	}

	raw, err := ex.Extract(harvest.PDFPath(cfg.CorpusDir, id))
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		markFailed(cfg.CorpusDir, id)
		return types.ExtractionFailed
	}

	text, equations := PreserveEquations(raw)

	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		return types.ExtractionFailed
	}

	stats := types.PaperStats{
		PaperID:     id,
		Readability: metrics.Analyze(text, metricOptions(cfg)),
		Equations:   equations,
		ExtractedAt: time.Now().UTC(),
	}

	data, err := yaml.Marshal(stats)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		return types.ExtractionFailed
	}
	if err := os.WriteFile(StatsPath(cfg.CorpusDir, id), data, 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
		return types.ExtractionFailed
	}

	updateMetadata(cfg.CorpusDir, id, func(p *types.Paper) {
		p.TextPath = textPath
		p.ExtractionStatus = types.ExtractionDone
	})

	fmt.Fprintf(w, "extracted: %s (%d words, %d equations)\n",
		id, stats.Readability.WordCount, len(equations))
	return types.ExtractionDone
}

// ExtractBatch processes PDFs with a bounded number of workers, printing
// per-file status and returning a summary. Individual failures do not
// abort the batch.
func ExtractBatch(ctx context.Context, ex TextExtractor, ids []string, cfg types.ExtractConfig, w io.Writer) BatchResult {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu     sync.Mutex
		result BatchResult
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)
	out := &lockedWriter{w: w, mu: &mu}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			wg.Wait()
			fmt.Fprintf(w, "\nBatch cancelled: %d extracted, %d skipped, %d failed (%d of %d processed)\n",
				result.Extracted, result.Skipped, result.Failed, result.Total(), len(ids))
			return result
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			status := ExtractPaper(ex, id, cfg, out)

			mu.Lock()
			switch status {
			case types.ExtractionDone:
				result.Extracted++
			case types.ExtractionNone:
				result.Skipped++
			case types.ExtractionFailed:
				result.Failed++
			}
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		result.Extracted, result.Skipped, result.Failed, result.Total())
	return result
}

// ListPDFIDs returns the paper IDs of all PDFs in the corpus PDF directory.
func ListPDFIDs(corpusDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(corpusDir, "pdfs"))
	if err != nil {
		return nil, fmt.Errorf("reading PDF directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".pdf"))
	}
	return ids, nil
}

// markFailed records a failed extraction in the paper's metadata, ignoring
// papers without a metadata record.
func markFailed(corpusDir, id string) {
	updateMetadata(corpusDir, id, func(p *types.Paper) {
		p.ExtractionStatus = types.ExtractionFailed
	})
}

func updateMetadata(corpusDir, id string, mutate func(*types.Paper)) {
	metaPath := harvest.MetadataPath(corpusDir, id)
	paper, err := harvest.ReadMetadata(metaPath)
	if err != nil {
		return
	}
	mutate(paper)
	if err := harvest.WriteMetadata(paper, metaPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: updating metadata for %s: %v\n", id, err)
	}
}

// lockedWriter serializes status lines from concurrent workers.
type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
