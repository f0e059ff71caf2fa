// Package markdown flattens markdown input into plain prose so it can be
// segmented and classified like any other text.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders md with the common extensions.
func ToHTML(md []byte) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	p := parser.NewWithExtensions(parser.CommonExtensions)
	return string(markdown.Render(p.Parse(md), renderer))
}

var (
	blockEnd = regexp.MustCompile(`(?i)</(?:p|h[1-6]|li|pre|blockquote|tr|table)>|<br\s*/?>|<hr\s*/?>`)
	spaces   = regexp.MustCompile(`[ \t]+`)
)

// ToPlainText returns the text content of md: markup removed, entities
// decoded, one line per block.
func ToPlainText(md []byte) string {
	rendered := blockEnd.ReplaceAllString(ToHTML(md), "\n")
	text := html.UnescapeString(StripHTMLTags(rendered))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// StripHTMLTags drops everything between '<' and '>'.
func StripHTMLTags(htmlContent string) string {
	var sb strings.Builder
	inTag := false
	for _, ch := range htmlContent {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}
