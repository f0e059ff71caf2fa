// Package fallback holds the deterministic, network-free substitutes used when
// the generative backend is disabled or fails. Every function is total on
// non-nil input.
package fallback

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/editeur/internal/classifier"
)

var annotations = map[classifier.Label]string{
	classifier.Legal:     "Formulation plus formelle conformément au contexte juridique",
	classifier.Technical: "Précision technique ajoutée",
	classifier.Marketing: "Tonalité marketing renforcée",
	classifier.General:   "Légère amélioration stylistique",
}

// Harmonize trims every unit, drops empty ones, ensures terminal punctuation
// and capitalizes the first character. Order is preserved and the function is
// idempotent.
func Harmonize(units []string) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		s := strings.TrimSpace(u)
		if s == "" {
			continue
		}
		if last, _ := utf8.DecodeLastRuneInString(s); !isTerminal(last) {
			s += "."
		}
		first, size := utf8.DecodeRuneInString(s)
		out = append(out, string(unicode.ToUpper(first))+s[size:])
	}
	return out
}

// Suggest appends the context-dependent annotation to the trimmed content.
// Empty content yields an empty string for every label.
func Suggest(content string, label classifier.Label) string {
	base := strings.TrimSpace(content)
	if base == "" {
		return ""
	}
	note, ok := annotations[label]
	if !ok {
		note = annotations[classifier.General]
	}
	return base + " (" + note + ")."
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
