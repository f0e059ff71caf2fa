// Package segmenter splits raw text into sentence-like units.
//
// The default splitter is a heuristic, not a linguistic parse: it breaks on
// periods only, so abbreviations and decimal numbers are split and sentences
// ending in '?' or '!' stay attached to the following text. Callers needing
// locale-aware segmentation plug their own Segmenter.
package segmenter

import "strings"

// Segmenter turns a document into an ordered list of non-empty units.
// Implementations must be pure functions of their input.
type Segmenter interface {
	Segment(text string) []string
}

// Heuristic is the period-splitting Segmenter.
type Heuristic struct{}

// Segment implements Segmenter.
func (Heuristic) Segment(text string) []string {
	return Segment(text)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Segment normalizes line breaks to spaces, splits on '.', trims every
// candidate and drops the empty ones.
func Segment(text string) []string {
	parts := strings.Split(lineBreaks.Replace(text), ".")
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			units = append(units, s)
		}
	}
	return units
}

// Lines splits content on line breaks, keeping non-empty trimmed lines. It is
// the unit split used for free-form harmonization input.
func Lines(content string) []string {
	parts := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	units := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			units = append(units, s)
		}
	}
	return units
}
