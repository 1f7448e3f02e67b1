package service

import (
	"regexp"
	"strings"
)

var (
	// Terminal control sequences and C0/C1 control characters, except
	// newline and tab.
	ansiEscape   = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07]*(\x07|\x1b\\)`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F\x{80}-\x{9F}]`)
)

// SanitizeText makes server-provided text safe to print: escape sequences
// and control characters are removed so a reply can never drive the terminal.
func SanitizeText(text string) string {
	text = ansiEscape.ReplaceAllString(text, "")
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimRight(text, " \t")
}

// SanitizeLine is SanitizeText for single-line fields such as names.
func SanitizeLine(text string) string {
	text = SanitizeText(text)
	text = strings.NewReplacer("\n", " ", "\t", " ").Replace(text)
	return strings.TrimSpace(text)
}
