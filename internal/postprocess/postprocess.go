// Package postprocess removes common artifacts from generated text before it
// reaches an operation: reasoning blocks, echoed preambles ("Here is the
// translation:", "Voici le texte amélioré :") and wrapping quotes.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips reasoning blocks, then a leading preamble, then one pair of
// wrapping quotes, and returns the trimmed result.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripPreamble(text)
	text = stripQuotes(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var (
	reasoningBlock = regexp.MustCompile(
		`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
	)
	// an opening tag whose closing tag never came (output cut off)
	unclosedReasoning = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>|<reflection>).*$`)
)

func stripReasoning(text string) string {
	text = reasoningBlock.ReplaceAllString(text, "")
	text = unclosedReasoning.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// preamble matches a label line such as "Here is the translation:" that sits
// alone on the first line. A label followed by text on the same line is content.
func preamble(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + expr + `\s*:[ \t]*\r?\n`)
}

var preambles = []*regexp.Regexp{
	preamble(`(?:(?:certainly|sure|of course)[,.!]?\s+)?here(?:'s| is)(?: the| your)? (?:refined |polished |improved |translated |harmonized )?(?:translation|text|version)`),
	preamble(`(?:the )?(?:refined |polished |improved )?(?:translation|translated text|improved text)`),
	preamble(`(?:(?:bien sûr|certainement)[,.!]?\s+)?voici(?: la| le| une| votre)? (?:traduction|texte(?: amélioré| harmonisé)?|version(?: améliorée)?)`),
	preamble(`(?:traduction|texte amélioré|suggestion)`),
}

func stripPreamble(text string) string {
	for _, re := range preambles {
		if loc := re.FindStringIndex(text); loc != nil {
			return strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'\u00ab': '\u00bb', // « »
	'\u201c': '\u201d', // “ ”
	'\u2018': '\u2019', // ‘ ’
}

// stripQuotes removes one pair of quotes wrapping the whole text. Text that
// quotes again inside (`"a", b, "c"`) is left alone.
func stripQuotes(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	closing, ok := quotePairs[runes[0]]
	if !ok || runes[len(runes)-1] != closing {
		return text
	}
	inner := string(runes[1 : len(runes)-1])
	if strings.ContainsRune(inner, runes[0]) || strings.ContainsRune(inner, closing) {
		return text
	}
	return strings.TrimSpace(inner)
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?```$")

// StripCodeFence unwraps a single fenced block (```json ... ```), which models
// often put around structured answers.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
