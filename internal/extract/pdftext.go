// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract converts harvested PDFs to cleaned plain text and
// computes per-paper readability statistics.
package extract

import (
	"bytes"
	"errors"
	"io"
	"regexp"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns a PDF file into plain text. The production
// implementation is PDFExtractor; tests substitute fakes.
type TextExtractor interface {
	Extract(pdfPath string) (string, error)
}

var errEmptyPDF = errors.New("pdf contains no extractable text")

// PDFExtractor extracts plain text with ledongthuc/pdf.
type PDFExtractor struct{}

// Extract reads the PDF at path and returns its cleaned plain text.
func (PDFExtractor) Extract(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}
	if buf.Len() == 0 {
		return "", errEmptyPDF
	}

	return CleanArtifacts(buf.String()), nil
}

var (
	// pageNumberPattern matches a bare page number on its own line.
	pageNumberPattern = regexp.MustCompile(`\s*\n\s*\d+\s*\n\s*`)

	// hyphenBreakPattern matches a word split by a hyphenated line break.
	hyphenBreakPattern = regexp.MustCompile(`-\n(\w+)`)
)

// CleanArtifacts removes common PDF extraction noise: standalone page
// numbers and hyphenated line breaks.
func CleanArtifacts(text string) string {
	text = pageNumberPattern.ReplaceAllString(text, "\n")
	text = hyphenBreakPattern.ReplaceAllString(text, "$1")
	return text
}
