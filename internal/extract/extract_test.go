// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mzelen/statpaper/internal/harvest"
	"github.com/mzelen/statpaper/pkg/types"
)

// fakeExtractor returns canned text keyed by path, or an error.
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(string) (string, error) {
	return f.text, f.err
}

const sampleText = "The model minimizes the empirical risk over the training data. " +
	"Convergence follows from standard arguments under mild assumptions here. " +
	"The resulting bound improves on previous work by a constant factor."

func testCfg(dir string) types.ExtractConfig {
	return types.ExtractConfig{CorpusDir: dir, Concurrency: 2}
}

func seedCorpus(t *testing.T, dir string, ids ...string) {
	t.Helper()
	for _, sub := range []string{"pdfs", "metadata"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range ids {
		if err := os.WriteFile(harvest.PDFPath(dir, id), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatal(err)
		}
		p := &types.Paper{ID: id, Category: "cs.LG", ExtractionStatus: types.ExtractionNone}
		if err := harvest.WriteMetadata(p, harvest.MetadataPath(dir, id)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExtractPaperWritesTextAndStats(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir, "2403.00001")

	var out bytes.Buffer
	status := ExtractPaper(fakeExtractor{text: sampleText}, "2403.00001", testCfg(dir), &out)
	if status != types.ExtractionDone {
		t.Fatalf("status = %q, want %q", status, types.ExtractionDone)
	}

	text, err := os.ReadFile(TextPath(dir, "2403.00001"))
	if err != nil {
		t.Fatalf("reading text: %v", err)
	}
	if string(text) != sampleText {
		t.Errorf("text = %q", text)
	}

	data, err := os.ReadFile(StatsPath(dir, "2403.00001"))
	if err != nil {
		t.Fatalf("reading stats: %v", err)
	}
	var stats types.PaperStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		t.Fatalf("parsing stats: %v", err)
	}
	if stats.PaperID != "2403.00001" {
		t.Errorf("PaperID = %q", stats.PaperID)
	}
	if stats.Readability.SentenceCount != 3 {
		t.Errorf("SentenceCount = %d, want 3", stats.Readability.SentenceCount)
	}
	if stats.Readability.FleschReadingEase == 0 {
		t.Error("FleschReadingEase = 0")
	}

	// Metadata is updated with the text path and status.
	p, err := harvest.ReadMetadata(harvest.MetadataPath(dir, "2403.00001"))
	if err != nil {
		t.Fatal(err)
	}
	if p.ExtractionStatus != types.ExtractionDone {
		t.Errorf("metadata status = %q", p.ExtractionStatus)
	}
	if p.TextPath != TextPath(dir, "2403.00001") {
		t.Errorf("metadata text path = %q", p.TextPath)
	}
}

func TestExtractPaperLiftsEquations(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir, "2403.00002")

	text := "The objective is \\begin{equation}L = -\\log p(x)\\end{equation} which we minimize. " +
		"Here $x$ denotes the input and the proof appears in the appendix section."

	var out bytes.Buffer
	status := ExtractPaper(fakeExtractor{text: text}, "2403.00002", testCfg(dir), &out)
	if status != types.ExtractionDone {
		t.Fatalf("status = %q", status)
	}

	stored, _ := os.ReadFile(TextPath(dir, "2403.00002"))
	if !strings.Contains(string(stored), "[EQ_DISPLAY_1]") {
		t.Errorf("display placeholder missing from %q", stored)
	}
	if !strings.Contains(string(stored), "[EQ_INLINE_2]") {
		t.Errorf("inline placeholder missing from %q", stored)
	}
	if strings.Contains(string(stored), "\\begin{equation}") {
		t.Error("raw LaTeX left in text")
	}

	data, _ := os.ReadFile(StatsPath(dir, "2403.00002"))
	var stats types.PaperStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		t.Fatal(err)
	}
	display, inline := stats.EquationCounts()
	if display != 1 || inline != 1 {
		t.Errorf("equation counts = %d display, %d inline", display, inline)
	}
	if stats.Equations[0].LaTeX != "L = -\\log p(x)" {
		t.Errorf("LaTeX = %q", stats.Equations[0].LaTeX)
	}
}

func TestExtractPaperSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir, "2403.00003")
	if err := os.MkdirAll(filepath.Join(dir, "text"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(TextPath(dir, "2403.00003"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	status := ExtractPaper(fakeExtractor{text: sampleText}, "2403.00003", testCfg(dir), &out)
	if status != types.ExtractionNone {
		t.Fatalf("status = %q, want skip", status)
	}

	text, _ := os.ReadFile(TextPath(dir, "2403.00003"))
	if string(text) != "old" {
		t.Error("existing text was overwritten")
	}
}

func TestExtractPaperFailureMarksMetadata(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir, "2403.00004")

	var out bytes.Buffer
	status := ExtractPaper(fakeExtractor{err: errors.New("broken xref")}, "2403.00004", testCfg(dir), &out)
	if status != types.ExtractionFailed {
		t.Fatalf("status = %q", status)
	}
	if !strings.Contains(out.String(), "failed:  2403.00004") {
		t.Errorf("output = %q", out.String())
	}

	p, err := harvest.ReadMetadata(harvest.MetadataPath(dir, "2403.00004"))
	if err != nil {
		t.Fatal(err)
	}
	if p.ExtractionStatus != types.ExtractionFailed {
		t.Errorf("metadata status = %q", p.ExtractionStatus)
	}
}

func TestExtractBatch(t *testing.T) {
	dir := t.TempDir()
	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("2403.%05d", i+10)
	}
	seedCorpus(t, dir, ids...)

	// Pre-extract one so the batch reports a skip.
	if err := os.MkdirAll(filepath.Join(dir, "text"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(TextPath(dir, ids[0]), []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	result := ExtractBatch(context.Background(), fakeExtractor{text: sampleText}, ids, testCfg(dir), &out)

	if result.Extracted != 5 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if result.Total() != 6 {
		t.Errorf("Total() = %d", result.Total())
	}
	if !strings.Contains(out.String(), "Batch summary: 5 extracted, 1 skipped, 0 failed") {
		t.Errorf("output = %q", out.String())
	}
}

// gatedExtractor signals when extraction starts and blocks until released.
type gatedExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (g gatedExtractor) Extract(string) (string, error) {
	g.started <- struct{}{}
	<-g.release
	return sampleText, nil
}

func TestExtractBatchCancelledReportsPartial(t *testing.T) {
	dir := t.TempDir()
	ids := []string{"2403.00010", "2403.00011", "2403.00012"}
	seedCorpus(t, dir, ids...)

	cfg := testCfg(dir)
	cfg.Concurrency = 1

	ctx, cancel := context.WithCancel(context.Background())
	ex := gatedExtractor{started: make(chan struct{}, 1), release: make(chan struct{})}

	var out bytes.Buffer
	done := make(chan BatchResult, 1)
	go func() { done <- ExtractBatch(ctx, ex, ids, cfg, &out) }()

	// Cancel while the first extraction is in flight, then let it finish.
	<-ex.started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(ex.release)

	result := <-done
	if result.Extracted != 1 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(out.String(), "Batch cancelled: 1 extracted, 0 skipped, 0 failed (1 of 3 processed)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestListPDFIDs(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir, "2403.00001", "2403.00002")
	if err := os.WriteFile(filepath.Join(dir, "pdfs", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := ListPDFIDs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestCleanArtifacts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"page number line removed",
			"end of page text\n 42 \nstart of next page",
			"end of page text\nstart of next page",
		},
		{
			"hyphen break rejoined",
			"the optimi-\nzation converges",
			"the optimization converges",
		},
		{
			"plain text untouched",
			"nothing to clean here",
			"nothing to clean here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanArtifacts(tt.in); got != tt.want {
				t.Errorf("CleanArtifacts(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreserveEquations(t *testing.T) {
	text := `Intro text \begin{equation}
E = mc^2
\end{equation} middle \[a^2 + b^2 = c^2\] and inline $x_i$ end.`

	out, eqs := PreserveEquations(text)

	if len(eqs) != 3 {
		t.Fatalf("got %d equations, want 3: %+v", len(eqs), eqs)
	}
	for _, eq := range eqs {
		if !strings.Contains(out, eq.Placeholder) {
			t.Errorf("placeholder %s missing from text", eq.Placeholder)
		}
	}
	if eqs[0].Kind != types.EquationDisplay || eqs[0].LaTeX != "E = mc^2" {
		t.Errorf("first equation = %+v", eqs[0])
	}
	if eqs[1].Kind != types.EquationDisplay || eqs[1].LaTeX != "a^2 + b^2 = c^2" {
		t.Errorf("second equation = %+v", eqs[1])
	}
	if eqs[2].Kind != types.EquationInline || eqs[2].LaTeX != "x_i" {
		t.Errorf("third equation = %+v", eqs[2])
	}
	if eqs[2].TokenLength != 1 {
		t.Errorf("TokenLength = %d", eqs[2].TokenLength)
	}
	if strings.ContainsAny(out, "$") {
		t.Errorf("inline delimiters left in %q", out)
	}
}

func TestPreserveEquationsNoMath(t *testing.T) {
	out, eqs := PreserveEquations("plain prose without any math at all")
	if len(eqs) != 0 {
		t.Errorf("eqs = %+v", eqs)
	}
	if out != "plain prose without any math at all" {
		t.Errorf("out = %q", out)
	}
}
