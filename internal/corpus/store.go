// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists paper metadata and readability metrics in a
// SQLite index with full-text search over titles and abstracts.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/mzelen/statpaper/pkg/types"
)

const (
	metadataDir = "metadata"
	statsDir    = "stats"
	indexDir    = "index"
	dbFile      = "corpus.db"
)

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	corpusDir  string
	maxResults int
}

// NewStore opens or creates the corpus database at
// corpusDir/index/corpus.db, creating the schema if needed.
func NewStore(cfg types.CorpusConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.CorpusDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		corpusDir:  cfg.CorpusDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			version INTEGER,
			title TEXT,
			authors TEXT,
			date TEXT,
			category TEXT,
			abstract TEXT,
			source_url TEXT,
			pdf_path TEXT,
			text_path TEXT,
			extraction_status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			paper_id TEXT PRIMARY KEY REFERENCES papers(id),
			word_count INTEGER,
			sentence_count INTEGER,
			avg_sentence_length REAL,
			flesch_reading_ease REAL,
			gunning_fog REAL,
			smog_index REAL,
			display_equations INTEGER,
			inline_equations INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_category ON papers(category)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_date ON papers(date)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			paper_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a corpus indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of papers processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads paper metadata and stats YAML files from the corpus
// directories and populates the database. It detects new, changed, and
// unchanged papers by file modification time for incremental updates.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	metaDir := filepath.Join(s.corpusDir, metadataDir)

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		paperID := strings.TrimSuffix(entry.Name(), ".yaml")
		metaPath := filepath.Join(metaDir, entry.Name())
		statsPath := filepath.Join(s.corpusDir, statsDir, paperID+".yaml")

		modTime, err := latestModTime(metaPath, statsPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE paper_id = ?`, paperID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", paperID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		paper, err := readPaper(metaPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		stats := readStats(statsPath)

		if err := s.ingestPaper(ctx, paper, stats, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", paperID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", paperID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", paperID)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestPaper(ctx context.Context, paper *types.Paper, stats *types.PaperStats, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	authorsJSON, _ := json.Marshal(paper.Authors)
	dateStr := ""
	if !paper.Date.IsZero() {
		dateStr = paper.Date.Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, version, title, authors, date, category, abstract,
			source_url, pdf_path, text_path, extraction_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			version=excluded.version, title=excluded.title, authors=excluded.authors,
			date=excluded.date, category=excluded.category, abstract=excluded.abstract,
			source_url=excluded.source_url, pdf_path=excluded.pdf_path,
			text_path=excluded.text_path, extraction_status=excluded.extraction_status`,
		paper.ID, paper.Version, paper.Title, string(authorsJSON), dateStr,
		paper.Category, paper.Abstract, paper.SourceURL, paper.PDFPath,
		paper.TextPath, string(paper.ExtractionStatus),
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	if stats != nil {
		display, inline := stats.EquationCounts()
		r := stats.Readability
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO metrics (paper_id, word_count, sentence_count,
				avg_sentence_length, flesch_reading_ease, gunning_fog, smog_index,
				display_equations, inline_equations)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			paper.ID, r.WordCount, r.SentenceCount, r.AvgSentenceLength,
			r.FleschReadingEase, r.GunningFog, r.SMOGIndex, display, inline,
		)
		if err != nil {
			return fmt.Errorf("upserting metrics: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (paper_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		paper.ID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// latestModTime returns the later modification time of the metadata file
// and, when present, the stats file.
func latestModTime(metaPath, statsPath string) (string, error) {
	info, err := os.Stat(metaPath)
	if err != nil {
		return "", err
	}
	mod := info.ModTime()

	if statsInfo, err := os.Stat(statsPath); err == nil && statsInfo.ModTime().After(mod) {
		mod = statsInfo.ModTime()
	}

	return mod.UTC().Format(time.RFC3339Nano), nil
}

func readPaper(path string) (*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var paper types.Paper
	if err := yaml.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return &paper, nil
}

// readStats loads a PaperStats record, returning nil for papers that have
// not been extracted yet.
func readStats(path string) *types.PaperStats {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var stats types.PaperStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}
