package harvest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mzelen/statpaper/internal/arxiv"
	"github.com/mzelen/statpaper/pkg/types"
)

// feedWith builds an Atom feed containing the given entry IDs.
func feedWith(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<entry>
			<id>http://arxiv.org/abs/%sv1</id>
			<title>Paper %s</title>
			<summary>Abstract for %s.</summary>
			<published>2024-03-01T00:00:00Z</published>
			<author><name>Test Author</name></author>
			<arxiv:primary_category term="cs.LG"/>
		</entry>`, id, id, id)
	}
	b.WriteString(`</feed>`)
	return b.String()
}

// testServer serves the arXiv API on /api and PDF bytes everywhere else.
// The returned client has both base URLs pointed at the server.
func testServer(t *testing.T, apiHandler http.HandlerFunc) *arxiv.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api", apiHandler)
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	oldAPI, oldPDF := arxiv.APIBase, arxiv.PDFBase
	arxiv.APIBase = ts.URL + "/api"
	arxiv.PDFBase = ts.URL + "/pdf/"
	t.Cleanup(func() {
		arxiv.APIBase = oldAPI
		arxiv.PDFBase = oldPDF
	})

	return &arxiv.Client{HTTP: ts.Client(), UserAgent: "statpaper-test/0.1"}
}

func testCfg(dir string) types.HarvestConfig {
	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "statpaper-test/0.1",
		},
		CorpusDir: dir,
		YearsBack: 5,
		PageSize:  100,
	}
}

func TestHarvestCategoryDownloadsAndWritesMetadata(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			w.Write([]byte(feedWith()))
			return
		}
		w.Write([]byte(feedWith("2403.00001", "2403.00002")))
	})

	dir := t.TempDir()
	var out bytes.Buffer
	result, err := HarvestCategory(context.Background(), client, "cs.LG", 2, testCfg(dir), &out)
	if err != nil {
		t.Fatalf("HarvestCategory: %v", err)
	}

	if result.Downloaded != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 2 downloaded", result)
	}

	for _, id := range []string{"2403.00001", "2403.00002"} {
		if _, err := os.Stat(PDFPath(dir, id)); err != nil {
			t.Errorf("missing PDF for %s: %v", id, err)
		}
		p, err := ReadMetadata(MetadataPath(dir, id))
		if err != nil {
			t.Fatalf("reading metadata for %s: %v", id, err)
		}
		if p.Category != "cs.LG" || p.Title == "" {
			t.Errorf("metadata for %s = %+v", id, p)
		}
		if p.ExtractionStatus != types.ExtractionNone {
			t.Errorf("extraction status = %q", p.ExtractionStatus)
		}
	}
}

func TestHarvestCategorySkipsExisting(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feedWith("2403.00001")))
	})

	dir := t.TempDir()
	cfg := testCfg(dir)

	// Pre-place the PDF and its metadata record.
	if err := os.MkdirAll(filepath.Join(dir, "pdfs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "metadata"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(PDFPath(dir, "2403.00001"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}
	existing := &types.Paper{ID: "2403.00001", Title: "Already Here", Category: "cs.LG"}
	if err := WriteMetadata(existing, MetadataPath(dir, "2403.00001")); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	result, err := HarvestCategory(context.Background(), client, "cs.LG", 1, cfg, &out)
	if err != nil {
		t.Fatalf("HarvestCategory: %v", err)
	}

	if result.Skipped != 1 || result.Downloaded != 0 {
		t.Fatalf("result = %+v, want 1 skipped", result)
	}
	if !strings.Contains(out.String(), "skipped: 2403.00001") {
		t.Errorf("output = %q", out.String())
	}
	if len(result.Papers) != 1 || result.Papers[0].Title != "Already Here" {
		t.Errorf("skip should reuse the stored metadata record: %+v", result.Papers)
	}

	// The pre-placed file must not be overwritten.
	data, _ := os.ReadFile(PDFPath(dir, "2403.00001"))
	if string(data) != "existing" {
		t.Error("existing PDF was overwritten")
	}
}

func TestHarvestCategoryContinuesAfterFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			w.Write([]byte(feedWith()))
			return
		}
		w.Write([]byte(feedWith("2403.00001", "2403.00002")))
	})
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "2403.00001") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("%PDF-1.4 fake"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	oldAPI, oldPDF := arxiv.APIBase, arxiv.PDFBase
	arxiv.APIBase = ts.URL + "/api"
	arxiv.PDFBase = ts.URL + "/pdf/"
	defer func() {
		arxiv.APIBase = oldAPI
		arxiv.PDFBase = oldPDF
	}()

	client := &arxiv.Client{HTTP: ts.Client(), UserAgent: "statpaper-test/0.1"}

	dir := t.TempDir()
	var out bytes.Buffer
	result, err := HarvestCategory(context.Background(), client, "cs.LG", 2, testCfg(dir), &out)
	if err != nil {
		t.Fatalf("HarvestCategory: %v", err)
	}

	if result.Failed != 1 || result.Downloaded != 1 {
		t.Fatalf("result = %+v, want 1 failed and 1 downloaded", result)
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false")
	}
	if !strings.Contains(out.String(), "failed:  2403.00001") {
		t.Errorf("output = %q", out.String())
	}

	// The failed download must not leave a partial file behind.
	if _, err := os.Stat(PDFPath(dir, "2403.00001")); !os.IsNotExist(err) {
		t.Error("partial PDF left on disk after failed download")
	}
}

func TestHarvestAllUsesDefaultPlan(t *testing.T) {
	var categories []string
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("search_query")
		categories = append(categories, q)
		w.Write([]byte(feedWith()))
	})

	cfg := testCfg(t.TempDir())
	var out bytes.Buffer
	if _, err := HarvestAll(context.Background(), client, cfg, &out); err != nil {
		t.Fatalf("HarvestAll: %v", err)
	}

	if len(categories) != len(DefaultPlan()) {
		t.Fatalf("queried %d categories, want %d", len(categories), len(DefaultPlan()))
	}
	if !strings.Contains(categories[0], "cat:cs.LG") {
		t.Errorf("first query = %q", categories[0])
	}
	if !strings.Contains(out.String(), "Harvest summary:") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHarvestCategoryStopsAtQuota(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(feedWith("2403.00001", "2403.00002", "2403.00003")))
	})

	dir := t.TempDir()
	var out bytes.Buffer
	result, err := HarvestCategory(context.Background(), client, "cs.LG", 1, testCfg(dir), &out)
	if err != nil {
		t.Fatalf("HarvestCategory: %v", err)
	}
	if result.Downloaded != 1 {
		t.Fatalf("downloaded = %d, want 1", result.Downloaded)
	}
}
