// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics computes surface-level readability statistics over
// extracted paper text. The scores follow the classic formulas: Flesch
// Reading Ease, Gunning Fog, and SMOG.
package metrics

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/mzelen/statpaper/pkg/types"
)

// Options bounds the sentence length filter. Sentences outside
// (MinSentenceLen, MaxSentenceLen) are discarded as extraction noise
// (figure captions, mangled tables, run-together pages).
type Options struct {
	MinSentenceLen int
	MaxSentenceLen int
}

// DefaultOptions returns the standard sentence filter bounds.
func DefaultOptions() Options {
	return Options{MinSentenceLen: 10, MaxSentenceLen: 500}
}

// placeholderPattern matches equation placeholders left by the extraction
// stage (e.g. "[EQ_DISPLAY_3]"). They are stripped before scoring so
// formula tokens do not distort the word statistics.
var placeholderPattern = regexp.MustCompile(`\[EQ_[A-Z]+_\d+\]`)

// wordPattern matches word tokens, keeping internal hyphens.
var wordPattern = regexp.MustCompile(`\b[\w-]+\b`)

// Analyze computes readability statistics for text. Degenerate input
// (empty text, no sentences) yields zero values rather than NaN.
func Analyze(text string, opts Options) types.Readability {
	clean := placeholderPattern.ReplaceAllString(text, "")

	words := wordPattern.FindAllString(clean, -1)
	sentences := SplitSentences(clean, opts)

	var r types.Readability
	r.WordCount = len(words)
	r.SentenceCount = len(sentences)

	if r.WordCount == 0 || r.SentenceCount == 0 {
		return r
	}

	var syllables, polysyllables int
	for _, w := range words {
		s := CountSyllables(w)
		syllables += s
		if s >= 3 {
			polysyllables++
		}
	}

	wPerS := float64(r.WordCount) / float64(r.SentenceCount)
	r.AvgSentenceLength = wPerS

	sylPerW := float64(syllables) / float64(r.WordCount)
	r.FleschReadingEase = round2(206.835 - 1.015*wPerS - 84.6*sylPerW)

	complexShare := 100 * float64(polysyllables) / float64(r.WordCount)
	r.GunningFog = round2(0.4 * (wPerS + complexShare))

	// SMOG is undefined for very short texts.
	if r.SentenceCount >= 3 {
		r.SMOGIndex = round2(1.0430*math.Sqrt(float64(polysyllables)*30/float64(r.SentenceCount)) + 3.1291)
	}

	return r
}

// SplitSentences splits text at ".", "!" or "?" followed by whitespace and
// an uppercase letter, except when the period terminates a two-letter
// abbreviation ("et al.", "Dr.", "Eq."). Sentences outside the length
// bounds are dropped.
func SplitSentences(text string, opts Options) []string {
	if opts.MaxSentenceLen <= 0 {
		opts = DefaultOptions()
	}

	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}

		// Look ahead for whitespace then an uppercase letter.
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}

		if c == '.' && isShortAbbreviation(runes, i) {
			continue
		}

		sentences = appendSentence(sentences, string(runes[start:i+1]), opts)
		start = j
	}

	if start < len(runes) {
		sentences = appendSentence(sentences, string(runes[start:]), opts)
	}

	return sentences
}

// isShortAbbreviation reports whether the period at index i terminates a
// standalone one- or two-letter token. This intentionally covers both
// two-letter abbreviations ("al.", "cf.") and single-letter initials
// ("J. Smith"), so neither ends a sentence even when an uppercase word
// follows.
func isShortAbbreviation(runes []rune, i int) bool {
	end := i - 1
	n := 0
	for end >= 0 && isWordRune(runes[end]) {
		n++
		if n > 2 {
			return false
		}
		end--
	}
	return n >= 1 && n <= 2 && (end < 0 || !isWordRune(runes[end]))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func appendSentence(sentences []string, s string, opts Options) []string {
	s = strings.TrimSpace(s)
	if len(s) > opts.MinSentenceLen && len(s) < opts.MaxSentenceLen {
		sentences = append(sentences, s)
	}
	return sentences
}

// CountSyllables estimates the syllable count of a word by counting vowel
// groups, with a silent-e adjustment. Every word counts at least one.
func CountSyllables(word string) int {
	w := strings.ToLower(word)

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	// Trailing silent e: "make", "side". Keep "le" endings: "table".
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}

	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
