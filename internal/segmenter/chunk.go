package segmenter

import (
	"strings"
	"unicode"
)

// Piece is one chunk of a longer text.
type Piece struct {
	Text string
	// Sep is the whitespace that followed Text in the source: a blank line,
	// a space, or nothing after a hard cut and after the last piece.
	Sep string
}

// Split cuts text into pieces of at most maxChars runes so that long
// documents can be sent to a backend in several requests. Splits are tried,
// in order, at:
//  1. paragraph boundaries (blank line)
//  2. sentence-ending punctuation followed by whitespace
//  3. whitespace
//  4. a hard cut at maxChars
//
// maxChars <= 0 means unlimited. Join puts the pieces back together.
func Split(text string, maxChars int) []Piece {
	text = strings.TrimSpace(text)
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []Piece{{Text: text}}
	}

	var pieces []Piece
	rest := []rune(text)
	for len(rest) > maxChars {
		cut := splitAt(rest[:maxChars])

		end := cut
		for end > 0 && unicode.IsSpace(rest[end-1]) {
			end--
		}
		start := cut
		for start < len(rest) && unicode.IsSpace(rest[start]) {
			start++
		}

		sep := string(rest[end:start])
		if end > 0 {
			pieces = append(pieces, Piece{Text: string(rest[:end]), Sep: sep})
		} else if n := len(pieces); n > 0 {
			pieces[n-1].Sep += sep
		}
		rest = rest[start:]
	}
	if len(rest) > 0 {
		pieces = append(pieces, Piece{Text: string(rest)})
	}
	return pieces
}

// Join concatenates pieces with their separators.
func Join(pieces []Piece) string {
	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.Text)
		b.WriteString(p.Sep)
	}
	return b.String()
}

// splitAt returns the rune index at which window should be cut.
func splitAt(window []rune) int {
	for i := len(window) - 2; i > 0; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			return i + 2
		}
	}
	for i := len(window) - 2; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if unicode.IsSpace(window[i+1]) {
				return i + 1
			}
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return len(window)
}
