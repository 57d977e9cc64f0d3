// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Readability holds surface-level text statistics for one paper.
type Readability struct {
	// WordCount is the number of word tokens after equation removal.
	WordCount int `json:"word_count" yaml:"word_count"`

	// SentenceCount is the number of sentences that survived length filtering.
	SentenceCount int `json:"sentence_count" yaml:"sentence_count"`

	// AvgSentenceLength is WordCount divided by SentenceCount, 0 when
	// no sentences were found.
	AvgSentenceLength float64 `json:"avg_sentence_length" yaml:"avg_sentence_length"`

	// FleschReadingEase is the Flesch Reading Ease score. Higher is easier;
	// dense technical prose typically lands below 30.
	FleschReadingEase float64 `json:"flesch_reading_ease" yaml:"flesch_reading_ease"`

	// GunningFog is the Gunning Fog grade-level index.
	GunningFog float64 `json:"gunning_fog" yaml:"gunning_fog"`

	// SMOGIndex is the SMOG grade. Zero when the text has fewer than
	// three sentences, following textstat semantics.
	SMOGIndex float64 `json:"smog_index" yaml:"smog_index"`
}

// EquationKind distinguishes display from inline LaTeX equations.
type EquationKind string

const (
	EquationDisplay EquationKind = "display"
	EquationInline  EquationKind = "inline"
)

// Equation records one LaTeX span lifted out of the extracted text.
type Equation struct {
	// Placeholder is the marker left in the text (e.g. "[EQ_DISPLAY_3]").
	Placeholder string `json:"placeholder" yaml:"placeholder"`

	// LaTeX is the raw equation body with delimiters stripped.
	LaTeX string `json:"latex" yaml:"latex"`

	// Kind is display or inline.
	Kind EquationKind `json:"kind" yaml:"kind"`

	// TokenLength is the whitespace-token length of the equation body.
	TokenLength int `json:"token_length" yaml:"token_length"`
}

// PaperStats is the per-paper extraction output written to corpus/stats/.
type PaperStats struct {
	PaperID     string      `json:"paper_id" yaml:"paper_id"`
	Readability Readability `json:"readability" yaml:"readability"`
	Equations   []Equation  `json:"equations,omitempty" yaml:"equations,omitempty"`
	ExtractedAt time.Time   `json:"extracted_at" yaml:"extracted_at"`
}

// EquationCounts returns the number of display and inline equations.
func (s PaperStats) EquationCounts() (display, inline int) {
	for _, eq := range s.Equations {
		if eq.Kind == EquationDisplay {
			display++
		} else {
			inline++
		}
	}
	return display, inline
}
