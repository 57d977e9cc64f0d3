// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExtractionStatus indicates the state of PDF-to-text extraction for a paper.
type ExtractionStatus string

const (
	ExtractionNone   ExtractionStatus = "none"
	ExtractionDone   ExtractionStatus = "extracted"
	ExtractionFailed ExtractionStatus = "failed"
)

// Paper holds metadata and file paths for a harvested paper.
type Paper struct {
	// ID is the versionless arXiv identifier (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Version is the numeric arXiv version suffix, 0 when unknown.
	Version int `json:"version,omitempty" yaml:"version,omitempty"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Category is the primary arXiv category (e.g. "cs.LG").
	Category string `json:"category" yaml:"category"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// SourceURL is the URL from which the PDF was downloaded.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// TextPath is the local filesystem path to the extracted plain text,
	// empty until extraction has run.
	TextPath string `json:"text_path,omitempty" yaml:"text_path,omitempty"`

	// ExtractionStatus tracks whether the PDF has been converted to text.
	ExtractionStatus ExtractionStatus `json:"extraction_status" yaml:"extraction_status"`
}
