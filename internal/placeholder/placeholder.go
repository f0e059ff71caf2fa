// Package placeholder shields content a translation must not alter (code,
// markup, template variables, printf verbs) behind numbered [PHn] markers and
// puts it back afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// patterns are applied in order; earlier ones swallow what later ones would
// match inside them.
var patterns = []*regexp.Regexp{
	// fenced code
	regexp.MustCompile("(?s)```.*?```"),
	// inline code
	regexp.MustCompile("`[^`\n]+`"),
	// {{var}}
	regexp.MustCompile(`\{\{[^{}]*\}\}`),
	// {var}
	regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_.\-]*\}`),
	// printf verbs: %s, %1$s, %.2f
	regexp.MustCompile(`%(?:\d+\$)?[-+#0]*\d*(?:\.\d+)?[sdfvqxXeEgGtTcbo]\b`),
	// HTML tags
	regexp.MustCompile(`</?[A-Za-z][^<>]*>`),
}

var marker = regexp.MustCompile(`\[PH(\d+)\]`)

// Markers holds the originals captured by Protect, indexed by marker number.
type Markers []string

// Protect replaces protected spans with [PH0], [PH1], ... and returns the
// rewritten text with the captured originals.
func Protect(text string) (string, Markers) {
	var markers Markers
	for _, re := range patterns {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			markers = append(markers, match)
			return fmt.Sprintf("[PH%d]", len(markers)-1)
		})
	}
	return text, markers
}

// Restore substitutes every known marker in text with its original. Unknown
// indices are left as they are.
func (m Markers) Restore(text string) string {
	if len(m) == 0 {
		return text
	}
	return marker.ReplaceAllStringFunc(text, func(match string) string {
		idx, err := strconv.Atoi(match[3 : len(match)-1])
		if err != nil || idx >= len(m) {
			return match
		}
		return m[idx]
	})
}

// Missing lists the marker indices absent from text.
func (m Markers) Missing(text string) []int {
	var missing []int
	for i := range m {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// Hint is appended to translation instructions when markers are present.
const Hint = "Keep every [PHn] marker exactly as written: do not translate, move or remove it."
