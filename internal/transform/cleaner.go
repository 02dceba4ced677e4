package transform

import (
	"regexp"
	"strings"
)

// CleanMarkup is a best-effort filter for Jira wiki markup. It is not a
// parser: each pass removes one family of formatting tokens, and the goal is
// noise reduction in training text, not round-trippable correctness.

var (
	codeBlockRe  = regexp.MustCompile(`(?is)\{code(?::[^}]*)?\}.*?\{code\}`)
	codeMarkerRe = regexp.MustCompile(`(?i)\{code(?::[^}]*)?\}`)
	noformatRe   = regexp.MustCompile(`(?i)\{noformat\}`)
	quoteRe      = regexp.MustCompile(`(?i)\{quote\}`)
	panelRe      = regexp.MustCompile(`(?i)\{panel(?::[^}]*)?\}`)
	imageThumbRe = regexp.MustCompile(`(?i)![^!|\s]+\|thumbnail!`)
	labelLinkRe  = regexp.MustCompile(`\[([^\[\]|]*)\|[^\]]*\]`)
	urlRefRe     = regexp.MustCompile(`(?i)\[(?:https?|ftp)://[^\]]*\]`)
	boldSpanRe   = regexp.MustCompile(`\*[^*\n]+\*`)
	colorRe      = regexp.MustCompile(`(?i)\{color(?::[^}]*)?\}`)
	emphasisRe   = regexp.MustCompile(`[*_+^~-]`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// CleanMarkup strips Jira wiki formatting from text and collapses whitespace.
// Code blocks are removed with their contents; other block markers are removed
// leaving the enclosed text. Returns "" for empty input.
func CleanMarkup(text string) string {
	if text == "" {
		return ""
	}

	// Fenced code blocks go entirely: their contents are code, not prose.
	text = codeBlockRe.ReplaceAllString(text, " ")
	text = codeMarkerRe.ReplaceAllString(text, " ")

	text = noformatRe.ReplaceAllString(text, " ")
	text = quoteRe.ReplaceAllString(text, " ")
	text = panelRe.ReplaceAllString(text, " ")
	text = imageThumbRe.ReplaceAllString(text, " ")

	// [label|target] keeps the label; bare [http://...] references are dropped.
	text = labelLinkRe.ReplaceAllString(text, "$1")
	text = urlRefRe.ReplaceAllString(text, " ")

	// *bold* spans are formatting tokens, then any stray emphasis characters.
	text = boldSpanRe.ReplaceAllString(text, " ")
	text = colorRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")

	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
