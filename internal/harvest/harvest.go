// Package harvest downloads papers from arXiv and creates metadata records.
package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mzelen/statpaper/internal/arxiv"
	"github.com/mzelen/statpaper/pkg/types"
)

const (
	pdfDir      = "pdfs"
	metadataDir = "metadata"
)

// overfetchFactor pads the search window so that already-downloaded papers
// do not leave a category short of its quota.
const overfetchFactor = 1.3

// DefaultPlan returns the built-in category quotas.
func DefaultPlan() []types.CategoryQuota {
	return []types.CategoryQuota{
		{Category: "cs.LG", Quota: 800},
		{Category: "math.AP", Quota: 400},
		{Category: "stat.ML", Quota: 600},
		{Category: "econ.EM", Quota: 300},
		{Category: "q-bio.QM", Quota: 200},
		{Category: "cs.CV", Quota: 500},
	}
}

// BatchResult holds the outcome of a harvest run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Papers     []*types.Paper
}

// Total returns the total number of papers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) merge(other BatchResult) {
	r.Downloaded += other.Downloaded
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Papers = append(r.Papers, other.Papers...)
}

// PDFPath returns the local PDF path for a paper ID under the corpus dir.
func PDFPath(corpusDir, id string) string {
	return filepath.Join(corpusDir, pdfDir, id+".pdf")
}

// MetadataPath returns the metadata YAML path for a paper ID.
func MetadataPath(corpusDir, id string) string {
	return filepath.Join(corpusDir, metadataDir, id+".yaml")
}

// HarvestAll runs HarvestCategory for every quota in the plan, printing
// per-category headers and returning an aggregate summary. It continues
// after per-category failures.
func HarvestAll(ctx context.Context, client *arxiv.Client, cfg types.HarvestConfig, w io.Writer) (BatchResult, error) {
	quotas := cfg.Quotas
	if len(quotas) == 0 {
		quotas = DefaultPlan()
	}

	var result BatchResult
	for _, q := range quotas {
		fmt.Fprintf(w, "\n%s (%d papers)\n", q.Category, q.Quota)
		r, err := HarvestCategory(ctx, client, q.Category, q.Quota, cfg, w)
		result.merge(r)
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			fmt.Fprintf(w, "warning: %s: %v\n", q.Category, err)
		}
	}

	fmt.Fprintf(w, "\nHarvest summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// HarvestCategory pages through the arXiv listing for one category until
// the quota is met, downloading PDFs and writing metadata records. Papers
// whose PDF already exists are skipped. Individual download failures do
// not abort the run.
func HarvestCategory(ctx context.Context, client *arxiv.Client, category string, quota int, cfg types.HarvestConfig, w io.Writer) (BatchResult, error) {
	var result BatchResult

	yearsBack := cfg.YearsBack
	if yearsBack <= 0 {
		yearsBack = 5
	}
	now := time.Now().UTC()
	from := time.Date(now.Year()-yearsBack, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	query := arxiv.BuildCategoryQuery(category, from, to)

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	for _, dir := range []string{
		filepath.Join(cfg.CorpusDir, pdfDir),
		filepath.Join(cfg.CorpusDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return result, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	maxScan := int(float64(quota) * overfetchFactor)
	scanned := 0

	for start := 0; result.Downloaded < quota && scanned < maxScan; start += pageSize {
		if start > 0 && cfg.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(cfg.RequestDelay):
			}
		}

		papers, err := client.Search(ctx, query, start, pageSize)
		if err != nil {
			return result, fmt.Errorf("searching %s: %w", category, err)
		}
		if len(papers) == 0 {
			break
		}

		for i := range papers {
			if result.Downloaded >= quota || scanned >= maxScan {
				break
			}
			scanned++

			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}

			p := &papers[i]
			if p.Category == "" {
				p.Category = category
			}

			paper, skipped, err := harvestPaper(ctx, client.HTTP, p, cfg, w)
			if err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", p.ID, err)
				result.Failed++
				continue
			}
			if skipped {
				result.Skipped++
			} else {
				result.Downloaded++
			}
			result.Papers = append(result.Papers, paper)
		}
	}

	return result, nil
}

// harvestPaper downloads one paper's PDF and writes its metadata record.
// The skipped return value indicates the PDF already existed.
func harvestPaper(ctx context.Context, client *http.Client, p *types.Paper, cfg types.HarvestConfig, w io.Writer) (paper *types.Paper, skipped bool, err error) {
	pdfPath := PDFPath(cfg.CorpusDir, p.ID)
	metaPath := MetadataPath(cfg.CorpusDir, p.ID)

	if _, statErr := os.Stat(pdfPath); statErr == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", p.ID)
		if existing, readErr := ReadMetadata(metaPath); readErr == nil {
			return existing, true, nil
		}
		p.PDFPath = pdfPath
		return p, true, nil
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", p.ID, p.Category)

	if cfg.DownloadDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(cfg.DownloadDelay):
		}
	}

	if err := downloadFile(ctx, client, p.SourceURL, pdfPath, cfg); err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", p.ID, err)
	}

	p.PDFPath = pdfPath
	p.ExtractionStatus = types.ExtractionNone

	if err := WriteMetadata(p, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", p.ID, err)
	}

	return p, false, nil
}

// downloadFile fetches url to destPath using a temporary file so partial
// downloads never land at the final path.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.HarvestConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".harvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteMetadata writes a Paper record to a YAML file.
func WriteMetadata(paper *types.Paper, path string) error {
	data, err := yaml.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadMetadata reads a Paper record from a YAML file.
func ReadMetadata(path string) (*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}
